package provenance

import (
	"fmt"
	"os"
)

// AddRepo records the state of the version-control checkout enclosing
// path: commit hash, dirty flag, inspecting tool version and, when
// withDiff and tracked files have uncommitted changes, the patch text.
//
// The checkout is keyed by path exactly as given. Adding one checkout
// under two spellings of its path records two entries; re-adding the
// same spelling overwrites the previous one.
//
// A dirty checkout is rejected with ErrRepositoryDirty unless allowDirty.
// Untracked files count as dirty for that gate unless allowUntracked;
// the recorded dirty flag itself covers tracked-file changes only.
func (c *Context) AddRepo(path string, allowDirty, allowUntracked, withDiff bool) error {
	dirty, err := c.RepoDirty(path, allowUntracked)
	if err != nil {
		return err
	}
	if dirty && !allowDirty {
		return fmt.Errorf("%w: %s", ErrRepositoryDirty, path)
	}
	info, err := c.InspectRepo(path, withDiff)
	if err != nil {
		return err
	}
	c.reposMap()[path] = info
	return nil
}

// RepoDirty reports whether the checkout enclosing path has uncommitted
// changes. With allowUntracked, untracked files do not count; only
// modifications to tracked files do.
func (c *Context) RepoDirty(path string, allowUntracked bool) (bool, error) {
	root, err := c.resolveRepo(path)
	if err != nil {
		return false, err
	}
	tracked, untracked, err := c.Inspector.Status(root)
	if err != nil {
		return false, err
	}
	if allowUntracked {
		return tracked, nil
	}
	return tracked || untracked, nil
}

// InspectRepo reads the checkout enclosing path without recording it.
// The diff is computed only when withDiff and tracked files have
// uncommitted changes; untracked files alone have no baseline to diff
// against, and diffing can be expensive on large or binary changes.
func (c *Context) InspectRepo(path string, withDiff bool) (RepoInfo, error) {
	root, err := c.resolveRepo(path)
	if err != nil {
		return RepoInfo{}, err
	}
	tracked, _, err := c.Inspector.Status(root)
	if err != nil {
		return RepoInfo{}, err
	}
	head, err := c.Inspector.Head(root)
	if err != nil {
		return RepoInfo{}, err
	}
	version, err := c.Inspector.Version()
	if err != nil {
		return RepoInfo{}, err
	}
	info := RepoInfo{
		Dirty:       tracked,
		Hash:        head,
		ToolVersion: version,
	}
	if withDiff && tracked {
		diff, err := c.Inspector.Diff(root)
		if err != nil {
			return RepoInfo{}, err
		}
		info.Diff = diff
	}
	return info, nil
}

// resolveRepo checks that path exists on disk, then locates the
// enclosing checkout.
func (c *Context) resolveRepo(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return c.Inspector.Resolve(path)
}

// reposMap returns the repositories section, creating it when missing.
func (c *Context) reposMap() map[string]RepoInfo {
	if m, ok := c.Snapshot["repositories"].(map[string]RepoInfo); ok {
		return m
	}
	m := make(map[string]RepoInfo)
	c.Snapshot["repositories"] = m
	return m
}
