// Package history persists snapshot exports so later runs can be
// compared against earlier ones. Each entry is one JSON document in a
// flat directory, named <UTC time>Z-<digest prefix>.json: names sort
// chronologically, and the digest prefix lets a load spot corruption.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrEntryNotFound is returned when no entry has the requested name.
var ErrEntryNotFound = errors.New("history entry not found")

// ErrCorrupted is returned when an entry's content no longer matches
// the digest recorded in its name.
var ErrCorrupted = errors.New("history entry corrupted")

// nameTimeLayout keeps the fractional part zero-padded so that name
// order is chronological order, even for saves within one second.
const (
	nameTimeLayout  = "20060102T150405.000000000"
	digestPrefixLen = 8
)

// Entry describes one stored snapshot.
type Entry struct {
	Name        string    // file name without the .json extension
	Path        string    // full path of the stored file
	Time        time.Time // save time, UTC
	ShortDigest string    // leading hex of the content's SHA-256
}

// Store manages snapshot persistence in a single directory.
type Store struct {
	Dir string
}

// NewStore creates a store over the given directory. The directory is
// created on the first save.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the default history location, ~/.provenance/history.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".provenance", "history")
	}
	return filepath.Join(home, ".provenance", "history")
}

// Save stores one rendered snapshot document and returns its entry.
func (s *Store) Save(document []byte) (Entry, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("create history dir: %w", err)
	}

	sum := sha256.Sum256(document)
	digest := hex.EncodeToString(sum[:])
	now := time.Now().UTC()
	name := now.Format(nameTimeLayout) + "Z-" + digest[:digestPrefixLen]

	path := filepath.Join(s.Dir, name+".json")
	if err := os.WriteFile(path, document, 0644); err != nil {
		return Entry{}, fmt.Errorf("save snapshot %s: %w", name, err)
	}

	return Entry{
		Name:        name,
		Path:        path,
		Time:        now,
		ShortDigest: digest[:digestPrefixLen],
	}, nil
}

// List returns all entries in chronological order. Files that do not
// follow the store's naming scheme are ignored. A missing directory
// means an empty history.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list history: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		entry, ok := parseName(strings.TrimSuffix(de.Name(), ".json"))
		if !ok {
			continue
		}
		entry.Path = filepath.Join(s.Dir, de.Name())
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Latest returns the newest n entries in chronological order, fewer
// when the history is shorter.
func (s *Store) Latest(n int) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Load returns the stored document, verifying it against the digest in
// its name.
func (s *Store) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		return nil, fmt.Errorf("load history entry %s: %w", name, err)
	}

	if entry, ok := parseName(name); ok {
		sum := sha256.Sum256(data)
		if !strings.HasPrefix(hex.EncodeToString(sum[:]), entry.ShortDigest) {
			return nil, fmt.Errorf("%w: %s", ErrCorrupted, name)
		}
	}
	return data, nil
}

// Delete removes one entry by name.
func (s *Store) Delete(name string) error {
	err := os.Remove(filepath.Join(s.Dir, name+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return err
}

// Prune removes entries saved before now minus olderThan and returns
// how many were removed.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if !entry.Time.Before(cutoff) {
			continue
		}
		if err := os.Remove(entry.Path); err != nil {
			return removed, fmt.Errorf("prune %s: %w", entry.Name, err)
		}
		removed++
	}
	return removed, nil
}

// parseName splits <time>Z-<digest> and reports whether the name
// follows the store's scheme.
func parseName(name string) (Entry, bool) {
	timePart, digestPart, ok := strings.Cut(name, "-")
	if !ok || len(digestPart) != digestPrefixLen {
		return Entry{}, false
	}
	if _, err := hex.DecodeString(digestPart); err != nil {
		return Entry{}, false
	}
	if !strings.HasSuffix(timePart, "Z") {
		return Entry{}, false
	}
	ts, err := time.Parse(nameTimeLayout, strings.TrimSuffix(timePart, "Z"))
	if err != nil {
		return Entry{}, false
	}
	return Entry{Name: name, Time: ts.UTC(), ShortDigest: digestPart}, true
}
