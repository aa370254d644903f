package provenance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format selects a render encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Render returns the snapshot as formatted text: two-space indentation,
// map keys in lexicographic order, UTF-8 with non-ASCII characters kept
// literal, one trailing newline. Rendering an unchanged snapshot twice
// yields byte-identical text. refreshTimestamp stamps the snapshot with
// the render time first; without it the timestamp stays the one from
// construction or the last Reset.
func (c *Context) Render(format Format, refreshTimestamp bool) (string, error) {
	if refreshTimestamp {
		c.Snapshot["timestamp"] = Timestamp()
	}
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c.Snapshot); err != nil {
			return "", fmt.Errorf("render json: %w", err)
		}
		return buf.String(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c.Snapshot); err != nil {
			return "", fmt.Errorf("render yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("render yaml: %w", err)
		}
		return buf.String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
}

// Export renders the snapshot to path, overwriting any existing file,
// and returns the SHA-256 of the written file. The digest is recomputed
// from disk, so it fingerprints the document a reader will actually
// find there.
func (c *Context) Export(format Format, path string, refreshTimestamp bool) (string, error) {
	text, err := c.Render(format, refreshTimestamp)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	return SHA256File(path)
}
