package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseArgs_Subcommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Subcommand
	}{
		{name: "snapshot", args: []string{"snapshot"}, want: SubcommandSnapshot},
		{name: "hash", args: []string{"hash", "a.txt"}, want: SubcommandHash},
		{name: "freeze", args: []string{"freeze"}, want: SubcommandFreeze},
		{name: "repo", args: []string{"repo", "."}, want: SubcommandRepo},
		{name: "editables", args: []string{"editables"}, want: SubcommandEditables},
		{name: "compare", args: []string{"compare", "a.json", "b.json"}, want: SubcommandCompare},
		{name: "snapshots", args: []string{"snapshots"}, want: SubcommandSnapshots},
		{name: "version", args: []string{"version"}, want: SubcommandVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Subcommand != tt.want {
				t.Errorf("Subcommand = %q, want %q", cmd.Subcommand, tt.want)
			}
		})
	}
}

func TestParseArgs_SnapshotFlags(t *testing.T) {
	args := []string{
		"snapshot",
		"--repo", "/src/app",
		"--repo", "/src/lib",
		"--file", "inputs=data.csv",
		"--data", "seed=42",
		"--allow-dirty",
		"--allow-untracked",
		"--no-diff",
		"--overwrite-files",
		"--packages",
		"--no-cpuinfo",
		"--update-timestamp",
		"--format", "yaml",
		"--out", "snap.yaml",
		"--config", "prov.toml",
		"--verbose",
	}

	cmd, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantRepos := []string{"/src/app", "/src/lib"}
	if len(cmd.Repos) != len(wantRepos) {
		t.Fatalf("Repos length = %d, want %d", len(cmd.Repos), len(wantRepos))
	}
	for i := range wantRepos {
		if cmd.Repos[i] != wantRepos[i] {
			t.Errorf("Repos[%d] = %q, want %q", i, cmd.Repos[i], wantRepos[i])
		}
	}
	if len(cmd.Files) != 1 || cmd.Files[0].Category != "inputs" || cmd.Files[0].Path != "data.csv" {
		t.Errorf("Files = %+v, want [{inputs data.csv}]", cmd.Files)
	}
	if len(cmd.Data) != 1 || cmd.Data[0].Key != "seed" || cmd.Data[0].Value != "42" {
		t.Errorf("Data = %+v, want [{seed 42}]", cmd.Data)
	}
	if !cmd.AllowDirty || !cmd.AllowUntracked || !cmd.NoDiff || !cmd.OverwriteFiles {
		t.Errorf("bool flags = %+v, want all repository and file flags set", cmd)
	}
	if !cmd.Packages || !cmd.NoCPUInfo || !cmd.UpdateTimestamp || !cmd.Verbose {
		t.Errorf("bool flags = %+v, want all collection flags set", cmd)
	}
	if cmd.Format != "yaml" {
		t.Errorf("Format = %q, want %q", cmd.Format, "yaml")
	}
	if cmd.Out != "snap.yaml" {
		t.Errorf("Out = %q, want %q", cmd.Out, "snap.yaml")
	}
	if cmd.ConfigPath != "prov.toml" {
		t.Errorf("ConfigPath = %q, want %q", cmd.ConfigPath, "prov.toml")
	}
}

func TestParseArgs_CompareFlags(t *testing.T) {
	cmd, err := ParseArgs([]string{"compare", "--strict", "--json", "before.json", "after.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.Strict || !cmd.JSON {
		t.Errorf("Strict = %v, JSON = %v, want both set", cmd.Strict, cmd.JSON)
	}
	if len(cmd.Paths) != 2 || cmd.Paths[0] != "before.json" || cmd.Paths[1] != "after.json" {
		t.Errorf("Paths = %v, want [before.json after.json]", cmd.Paths)
	}

	cmd, err = ParseArgs([]string{"compare", "--last"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.Last || len(cmd.Paths) != 0 {
		t.Errorf("Last = %v, Paths = %v, want --last and no paths", cmd.Last, cmd.Paths)
	}
}

func TestParseArgs_SnapshotsFlags(t *testing.T) {
	cmd, err := ParseArgs([]string{"snapshots", "--prune", "720h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.PruneSet || cmd.Prune != 720*time.Hour {
		t.Errorf("Prune = %v (set %v), want 720h set", cmd.Prune, cmd.PruneSet)
	}

	cmd, err = ParseArgs([]string{"snapshots"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.PruneSet {
		t.Error("PruneSet should be false without --prune")
	}
}

func TestParseArgs_SaveFlag(t *testing.T) {
	cmd, err := ParseArgs([]string{"snapshot", "--save"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.Save {
		t.Error("Save should be set")
	}
}

func TestParseArgs_PairValues(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantCategory string
		wantPath     string
	}{
		{
			name:         "category and path",
			args:         []string{"snapshot", "--file", "results=out/plot.png"},
			wantCategory: "results",
			wantPath:     "out/plot.png",
		},
		{
			name:         "empty category",
			args:         []string{"snapshot", "--file", "=notes.txt"},
			wantCategory: "",
			wantPath:     "notes.txt",
		},
		{
			name:         "path containing equals",
			args:         []string{"snapshot", "--file", "cfg=name=value.ini"},
			wantCategory: "cfg",
			wantPath:     "name=value.ini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cmd.Files) != 1 {
				t.Fatalf("Files length = %d, want 1", len(cmd.Files))
			}
			if cmd.Files[0].Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", cmd.Files[0].Category, tt.wantCategory)
			}
			if cmd.Files[0].Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", cmd.Files[0].Path, tt.wantPath)
			}
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "empty args",
			args:    []string{},
			wantErr: ErrNoSubcommand,
		},
		{
			name:    "unknown subcommand",
			args:    []string{"record", "."},
			wantErr: ErrNoSubcommand,
		},
		{
			name:    "unknown flag",
			args:    []string{"snapshot", "--frobnicate"},
			wantErr: ErrUnknownFlag,
		},
		{
			name:    "flag missing value",
			args:    []string{"snapshot", "--repo"},
			wantErr: ErrMissingFlagValue,
		},
		{
			name:    "file without separator",
			args:    []string{"snapshot", "--file", "plain.txt"},
			wantErr: ErrBadPairValue,
		},
		{
			name:    "data without separator",
			args:    []string{"snapshot", "--data", "seed"},
			wantErr: ErrBadPairValue,
		},
		{
			name:    "hash without path",
			args:    []string{"hash"},
			wantErr: ErrNoPath,
		},
		{
			name:    "repo without path",
			args:    []string{"repo", "--diff"},
			wantErr: ErrOnePath,
		},
		{
			name:    "repo with two paths",
			args:    []string{"repo", "a", "b"},
			wantErr: ErrOnePath,
		},
		{
			name:    "snapshot with stray path",
			args:    []string{"snapshot", "stray"},
			wantErr: ErrUnexpectedArg,
		},
		{
			name:    "compare with one path",
			args:    []string{"compare", "only.json"},
			wantErr: ErrTwoPaths,
		},
		{
			name:    "compare last with path",
			args:    []string{"compare", "--last", "extra.json"},
			wantErr: ErrUnexpectedArg,
		},
		{
			name:    "snapshots with stray path",
			args:    []string{"snapshots", "stray"},
			wantErr: ErrUnexpectedArg,
		},
		{
			name:    "prune with bad duration",
			args:    []string{"snapshots", "--prune", "soon"},
			wantErr: ErrBadDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// For any sequence of --repo flags, parsing preserves every path in
// order: repositories are recorded in the order the caller names them.
func TestParseArgs_RepoPreservation_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("repo paths preserved in order", prop.ForAll(
		func(paths []string) bool {
			args := []string{"snapshot"}
			for _, p := range paths {
				args = append(args, "--repo", p)
			}
			cmd, err := ParseArgs(args)
			if err != nil {
				return false
			}
			if len(cmd.Repos) != len(paths) {
				return false
			}
			for i := range paths {
				if cmd.Repos[i] != paths[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("hash paths preserved in order", prop.ForAll(
		func(paths []string) bool {
			args := append([]string{"hash"}, paths...)
			cmd, err := ParseArgs(args)
			if err != nil {
				return false
			}
			if len(cmd.Paths) != len(paths) {
				return false
			}
			for i := range paths {
				if cmd.Paths[i] != paths[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()).SuchThat(func(s []string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t)
}

// For any identifier key and alphanumeric value, --data key=value
// round-trips into the parsed pair.
func TestParseArgs_DataPairs_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("data pairs split on first equals", prop.ForAll(
		func(key, value string) bool {
			cmd, err := ParseArgs([]string{"snapshot", "--data", key + "=" + value})
			if err != nil {
				return false
			}
			if len(cmd.Data) != 1 {
				return false
			}
			return cmd.Data[0].Key == key && cmd.Data[0].Value == value
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
