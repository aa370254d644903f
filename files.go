package provenance

import (
	"fmt"
	"os"
	"path/filepath"
)

// AddFile fingerprints the file at path (SHA-256 digest and modification
// time) and records it under category. The path is cleaned of "." and
// ".." segments, symlinks left unresolved; the cleaned string is the
// entry's identity within its category, so one file reached through two
// different spellings yields two entries.
//
// Categories group files by role ("input", "output", "log", ...) and
// scope the duplicate check: a file already tracked under the same
// category is rejected with ErrAlreadyTracked unless overwrite is set,
// while tracking the same file under a second category always records an
// independent fingerprint. A workflow whose input file is rewritten as
// an output can hold both states this way. Returns the digest.
func (c *Context) AddFile(path, category string, overwrite bool) (string, error) {
	path = filepath.Clean(path)
	if !overwrite {
		if byCat, ok := c.Snapshot["files"].(map[string]map[string]FileInfo); ok {
			if _, tracked := byCat[category][path]; tracked {
				return "", fmt.Errorf("%w: %q file %q", ErrAlreadyTracked, category, path)
			}
		}
	}
	digest, err := SHA256File(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	files := c.filesMap()
	if files[category] == nil {
		files[category] = make(map[string]FileInfo)
	}
	files[category][path] = FileInfo{
		Mtime:  float64(info.ModTime().UnixNano()) / 1e9,
		SHA256: digest,
	}
	return digest, nil
}

// UntrackFile removes the (category, path) entry recorded by AddFile,
// cleaning the path the same way. Entries in other categories are left
// alone. Returns ErrNotTracked when no entry matches, unless missingOK.
func (c *Context) UntrackFile(path, category string, missingOK bool) error {
	path = filepath.Clean(path)
	if byCat, ok := c.Snapshot["files"].(map[string]map[string]FileInfo); ok {
		if _, tracked := byCat[category][path]; tracked {
			delete(byCat[category], path)
			if len(byCat[category]) == 0 {
				delete(byCat, category)
			}
			return nil
		}
	}
	if missingOK {
		return nil
	}
	return fmt.Errorf("%w: %q file %q", ErrNotTracked, category, path)
}

// filesMap returns the files section, creating it when missing.
func (c *Context) filesMap() map[string]map[string]FileInfo {
	if m, ok := c.Snapshot["files"].(map[string]map[string]FileInfo); ok {
		return m
	}
	m := make(map[string]map[string]FileInfo)
	c.Snapshot["files"] = m
	return m
}
