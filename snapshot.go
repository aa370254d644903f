package provenance

import (
	"os"
	"runtime"
	"runtime/debug"
	"time"
)

// Snapshot is the live provenance document. Map keys at every level
// render in lexicographic order, so an unchanged snapshot serializes to
// byte-identical text. Callers may read and edit it freely; operations
// that need a specific subtree (data, files, repositories) recreate it
// when missing.
type Snapshot map[string]any

// InterpreterInfo identifies the Go toolchain behind the running binary.
type InterpreterInfo struct {
	Branch         string `json:"branch" yaml:"branch"`
	Compiler       string `json:"compiler" yaml:"compiler"`
	Implementation string `json:"implementation" yaml:"implementation"`
	Revision       string `json:"revision" yaml:"revision"`
	Version        string `json:"version" yaml:"version"`
}

// RepoInfo records the observed state of one version-control checkout.
//
// Dirty reflects uncommitted changes to tracked files. Diff is present
// only when such changes existed and a diff was requested; untracked
// files alone never produce one.
type RepoInfo struct {
	Dirty       bool   `json:"dirty" yaml:"dirty"`
	Diff        string `json:"diff,omitempty" yaml:"diff,omitempty"`
	Hash        string `json:"hash" yaml:"hash"`
	ToolVersion string `json:"version" yaml:"version"`
}

// FileInfo is the fingerprint of one tracked file: content digest and
// modification time in fractional epoch seconds.
type FileInfo struct {
	Mtime  float64 `json:"mtime" yaml:"mtime"`
	SHA256 string  `json:"sha256" yaml:"sha256"`
}

// RandomState records a serialized random source and when it was
// captured.
type RandomState struct {
	State     string `json:"state" yaml:"state"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// timestampLayout is ISO-8601 with microsecond precision. UTC times
// render with a Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Timestamp returns the current UTC time in the format snapshots use.
func Timestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

// baseSnapshot gathers the facts every fresh snapshot starts from.
func baseSnapshot(withCPU bool) Snapshot {
	snap := Snapshot{
		"argv":        append([]string(nil), os.Args...),
		"interpreter": interpreterInfo(),
		"platform":    platformString(),
		"timestamp":   Timestamp(),
	}
	if withCPU {
		snap["cpuinfo"] = collectCPUInfo()
	}
	return snap
}

// interpreterInfo describes the toolchain from the runtime and from the
// build info embedded in the binary. Revision stays empty for binaries
// built outside a checkout; build info carries no branch name, so
// Branch is always empty.
func interpreterInfo() InterpreterInfo {
	info := InterpreterInfo{
		Compiler:       runtime.Compiler + " " + runtime.GOOS + "/" + runtime.GOARCH,
		Implementation: runtime.Compiler,
		Version:        runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}
	return info
}
