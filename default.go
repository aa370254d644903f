package provenance

import (
	"encoding"
	"sync"

	"provenance/pipcli"
)

// The package-level functions operate on one process-wide Context, for
// scripts that do not need to manage their own. It is built lazily with
// DefaultOptions on first use.
var (
	defaultOnce sync.Once
	defaultCtx  *Context
)

// Default returns the process-wide Context, creating it on first use.
func Default() *Context {
	defaultOnce.Do(func() {
		defaultCtx = NewDefault()
	})
	return defaultCtx
}

// Reset rewinds the process-wide Context. See Context.Reset.
func Reset() error { return Default().Reset() }

// AddRepo records a checkout in the process-wide Context. See
// Context.AddRepo.
func AddRepo(path string, allowDirty, allowUntracked, withDiff bool) error {
	return Default().AddRepo(path, allowDirty, allowUntracked, withDiff)
}

// RepoDirty reports dirtiness through the process-wide Context. See
// Context.RepoDirty.
func RepoDirty(path string, allowUntracked bool) (bool, error) {
	return Default().RepoDirty(path, allowUntracked)
}

// InspectRepo reads a checkout through the process-wide Context. See
// Context.InspectRepo.
func InspectRepo(path string, withDiff bool) (RepoInfo, error) {
	return Default().InspectRepo(path, withDiff)
}

// AddFile tracks a file in the process-wide Context. See
// Context.AddFile.
func AddFile(path, category string, overwrite bool) (string, error) {
	return Default().AddFile(path, category, overwrite)
}

// UntrackFile removes a tracked file from the process-wide Context. See
// Context.UntrackFile.
func UntrackFile(path, category string, missingOK bool) error {
	return Default().UntrackFile(path, category, missingOK)
}

// AddData records a value in the process-wide Context. See
// Context.AddData.
func AddData(key string, value any) any {
	return Default().AddData(key, value)
}

// AddRandomState records a random source's state in the process-wide
// Context. See Context.AddRandomState.
func AddRandomState(src encoding.BinaryMarshaler) error {
	return Default().AddRandomState(src)
}

// AddPackages collects the package list into the process-wide Context.
// See Context.AddPackages.
func AddPackages() ([]string, error) {
	return Default().AddPackages()
}

// FindEditables lists editable installs through the process-wide
// Context. See Context.FindEditables.
func FindEditables() ([]pipcli.Editable, error) {
	return Default().FindEditables()
}

// TrackEditables records editable install repositories in the
// process-wide Context. See Context.TrackEditables.
func TrackEditables(allowDirty bool) error {
	return Default().TrackEditables(allowDirty)
}

// Render renders the process-wide Context's snapshot. See
// Context.Render.
func Render(format Format, refreshTimestamp bool) (string, error) {
	return Default().Render(format, refreshTimestamp)
}

// Export writes the process-wide Context's snapshot to path. See
// Context.Export.
func Export(format Format, path string, refreshTimestamp bool) (string, error) {
	return Default().Export(format, path, refreshTimestamp)
}

// ExportRequirements writes the process-wide Context's package list to
// path. See Context.ExportRequirements.
func ExportRequirements(path, message string) error {
	return Default().ExportRequirements(path, message)
}
