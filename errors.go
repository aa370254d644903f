package provenance

import (
	"errors"

	"provenance/gitcli"
)

// Sentinel errors. Operations wrap these with detail; match them with
// errors.Is. External tool failures carry their own types
// (gitcli.ExecError, pipcli.ExecError) and are matched with errors.As.
var (
	// ErrPathNotFound is returned when a path does not name an existing
	// filesystem entry of the kind the operation needs.
	ErrPathNotFound = errors.New("path not found")

	// ErrRepositoryNotFound is returned when no version-control checkout
	// encloses a path. Custom inspectors return it from Resolve.
	ErrRepositoryNotFound = gitcli.ErrNotRepository

	// ErrRepositoryDirty is returned by AddRepo when the checkout is
	// dirty and allowDirty is false.
	ErrRepositoryDirty = errors.New("repository is in a dirty state")

	// ErrAlreadyTracked is returned by AddFile when the file is already
	// tracked under the same category and overwrite is false.
	ErrAlreadyTracked = errors.New("file already tracked")

	// ErrNotTracked is returned by UntrackFile when no entry matches.
	ErrNotTracked = errors.New("file not tracked")

	// ErrUnsupportedFormat is returned for render formats other than
	// FormatJSON and FormatYAML.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
