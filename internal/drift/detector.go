// Package drift compares two exported snapshot documents and reports
// where they disagree. Documents are flattened to dotted paths so a
// difference names the exact field that moved, however deeply nested.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind represents the type of difference between two documents.
type Kind string

const (
	Added   Kind = "added"   // Path in after but not before
	Removed Kind = "removed" // Path in before but not after
	Changed Kind = "changed" // Path in both with different values
)

// Document is one parsed snapshot plus the digest of its raw bytes.
type Document struct {
	Data   map[string]any
	Digest string
}

// Difference represents a single path's drift.
type Difference struct {
	Path   string `json:"path"`
	Kind   Kind   `json:"kind"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Report contains the full comparison result.
type Report struct {
	HasDrift     bool         `json:"hasDrift"`
	BeforeDigest string       `json:"beforeDigest"`
	AfterDigest  string       `json:"afterDigest"`
	Differences  []Difference `json:"differences"`
}

// volatilePaths change on every run and carry no drift signal. They
// are compared only in strict mode.
var volatilePaths = map[string]bool{
	"timestamp":        true,
	"random.timestamp": true,
}

// ParseDocument decodes one exported snapshot and records the digest
// of its raw form.
func ParseDocument(raw []byte) (Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, fmt.Errorf("parse snapshot document: %w", err)
	}
	sum := sha256.Sum256(raw)
	return Document{Data: data, Digest: hex.EncodeToString(sum[:])}, nil
}

// Detect compares two documents path by path and returns a drift
// report. Volatile paths are skipped unless strict is set.
func Detect(before, after Document, strict bool) Report {
	report := Report{
		BeforeDigest: before.Digest,
		AfterDigest:  after.Digest,
		Differences:  []Difference{},
	}

	// Quick check: identical bytes cannot drift
	if before.Digest != "" && before.Digest == after.Digest {
		return report
	}

	beforeFlat := Flatten(before.Data)
	afterFlat := Flatten(after.Data)

	// Collect all paths from both documents
	allPaths := make(map[string]bool)
	for path := range beforeFlat {
		allPaths[path] = true
	}
	for path := range afterFlat {
		allPaths[path] = true
	}

	// Sort paths for deterministic output
	paths := make([]string, 0, len(allPaths))
	for path := range allPaths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	// Compare each path
	for _, path := range paths {
		if !strict && volatilePaths[path] {
			continue
		}
		beforeValue, inBefore := beforeFlat[path]
		afterValue, inAfter := afterFlat[path]

		if inBefore && !inAfter {
			report.Differences = append(report.Differences, Difference{
				Path:   path,
				Kind:   Removed,
				Before: beforeValue,
			})
		} else if !inBefore && inAfter {
			report.Differences = append(report.Differences, Difference{
				Path:  path,
				Kind:  Added,
				After: afterValue,
			})
		} else if beforeValue != afterValue {
			report.Differences = append(report.Differences, Difference{
				Path:   path,
				Kind:   Changed,
				Before: beforeValue,
				After:  afterValue,
			})
		}
	}

	report.HasDrift = len(report.Differences) > 0
	return report
}

// Flatten reduces a decoded document to a map of dotted paths to
// scalar values. List elements take their index as a path segment.
func Flatten(data map[string]any) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, "", data)
	return flat
}

func flattenInto(flat map[string]string, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flattenInto(flat, joinPath(prefix, key), child)
		}
	case []any:
		for i, child := range v {
			flattenInto(flat, joinPath(prefix, strconv.Itoa(i)), child)
		}
	default:
		flat[prefix] = formatScalar(v)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// formatScalar renders a decoded JSON scalar. Floats use the shortest
// form that round-trips, so distinct numbers never collapse to the
// same string.
func formatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
