package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"provenance"
	"provenance/gitcli"
	"provenance/internal/cli"
	"provenance/internal/config"
	"provenance/internal/drift"
	"provenance/internal/history"
	"provenance/pipcli"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	exitCode := run(os.Args[1:], os.Environ())
	os.Exit(exitCode)
}

// run orchestrates one CLI invocation and returns the exit code:
// 0 for success, 1 for operational failures, 2 for usage errors, and
// 3 when compare finds drift.
// This function is separated from main() to enable testing.
func run(args []string, environ []string) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}

	if cmd.Subcommand == cli.SubcommandVersion {
		fmt.Printf("provenance %s\n", version)
		return 0
	}

	cfg, err := config.Load(config.ResolvePath(cmd.ConfigPath, environ), environ)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	logger := newLogger(cmd.Verbose)

	switch cmd.Subcommand {
	case cli.SubcommandHash:
		return runHash(cmd)
	case cli.SubcommandFreeze:
		return runFreeze(cmd, cfg, logger)
	case cli.SubcommandRepo:
		return runRepo(cmd, cfg, logger)
	case cli.SubcommandEditables:
		return runEditables(cmd, cfg, logger)
	case cli.SubcommandSnapshot:
		return runSnapshot(cmd, cfg, logger)
	case cli.SubcommandCompare:
		return runCompare(cmd, cfg)
	case cli.SubcommandSnapshots:
		return runSnapshots(cmd, cfg)
	}

	fmt.Fprintln(os.Stderr, "Error:", cli.ErrNoSubcommand)
	return 2
}

// newLogger builds the CLI logger: warnings only by default, everything
// with --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newContext builds a recording context from the effective config and
// the command flags. Flags win over config values.
func newContext(cmd cli.Command, cfg config.Config, logger *slog.Logger) (*provenance.Context, error) {
	c, err := provenance.New(provenance.Options{
		CPUInfo: cfg.CPUInfo && !cmd.NoCPUInfo,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	// Wire the configured tools before any collection happens.
	c.Inspector = gitcli.Runner{Bin: cfg.GitBin}
	c.Freezer = pipcli.Runner{Bin: cfg.PipBin, Args: cfg.PipArgs}

	if cfg.Packages || cmd.Packages {
		if _, err := c.AddPackages(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// renderFormat picks the output format: flag wins over config.
func renderFormat(cmd cli.Command, cfg config.Config) provenance.Format {
	if cmd.Format != "" {
		return provenance.Format(cmd.Format)
	}
	return provenance.Format(cfg.Format)
}

// historyStore opens the snapshot history at the configured location.
func historyStore(cfg config.Config) *history.Store {
	dir := cfg.HistoryDir
	if dir == "" {
		dir = history.DefaultDir()
	}
	return history.NewStore(dir)
}

// runSnapshot records repositories, files and extra data, then renders
// the snapshot to stdout or exports it to --out. With --save a JSON
// copy also goes into the history.
func runSnapshot(cmd cli.Command, cfg config.Config, logger *slog.Logger) int {
	c, err := newContext(cmd, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	for _, path := range cmd.Repos {
		if err := c.AddRepo(path, cmd.AllowDirty, cmd.AllowUntracked, !cmd.NoDiff); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}
	for _, f := range cmd.Files {
		if _, err := c.AddFile(f.Path, f.Category, cmd.OverwriteFiles); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
	}
	for _, d := range cmd.Data {
		c.AddData(d.Key, d.Value)
	}

	format := renderFormat(cmd, cfg)

	if cmd.Out != "" {
		digest, err := c.Export(format, cmd.Out, cmd.UpdateTimestamp)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Println(digest)
	} else {
		text, err := c.Render(format, cmd.UpdateTimestamp)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Print(text)
	}

	if cmd.Save {
		return saveSnapshot(c, cfg, logger)
	}
	return 0
}

// saveSnapshot stores a JSON copy of the snapshot in the history. The
// timestamp is not refreshed again, so the stored copy carries the
// same timestamp as the output that preceded it.
func saveSnapshot(c *provenance.Context, cfg config.Config, logger *slog.Logger) int {
	text, err := c.Render(provenance.FormatJSON, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	entry, err := historyStore(cfg).Save([]byte(text))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	logger.Info("snapshot saved", "entry", entry.Name, "path", entry.Path)
	return 0
}

// runHash prints the SHA-256 digest of each path in sha256sum format.
func runHash(cmd cli.Command) int {
	for _, path := range cmd.Paths {
		digest, err := provenance.SHA256File(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Printf("%s  %s\n", digest, path)
	}
	return 0
}

// runFreeze lists installed packages, or writes a requirements file
// when --out is given.
func runFreeze(cmd cli.Command, cfg config.Config, logger *slog.Logger) int {
	c, err := newContext(cmd, cfg, logger)
	if err != nil {
		return reportToolError(err, cfg)
	}

	if cmd.Out != "" {
		if err := c.ExportRequirements(cmd.Out, cmd.Message); err != nil {
			return reportToolError(err, cfg)
		}
		return 0
	}

	pkgs, err := c.AddPackages()
	if err != nil {
		return reportToolError(err, cfg)
	}
	for _, p := range pkgs {
		fmt.Println(p)
	}
	return 0
}

// runRepo inspects a single repository and prints its record as JSON.
// Dirty state is reported here, never rejected.
func runRepo(cmd cli.Command, cfg config.Config, logger *slog.Logger) int {
	c, err := newContext(cmd, cfg, logger)
	if err != nil {
		return reportToolError(err, cfg)
	}

	info, err := c.InspectRepo(cmd.Paths[0], cmd.Diff)
	if err != nil {
		return reportToolError(err, cfg)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

// runEditables lists packages installed in editable mode, or with
// --track records their repositories and prints the snapshot.
func runEditables(cmd cli.Command, cfg config.Config, logger *slog.Logger) int {
	c, err := newContext(cmd, cfg, logger)
	if err != nil {
		return reportToolError(err, cfg)
	}

	if cmd.Track {
		if err := c.TrackEditables(cmd.AllowDirty); err != nil {
			return reportToolError(err, cfg)
		}
		text, err := c.Render(renderFormat(cmd, cfg), false)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Print(text)
		return 0
	}

	editables, err := c.FindEditables()
	if err != nil {
		return reportToolError(err, cfg)
	}
	for _, e := range editables {
		fmt.Printf("%s==%s  %s\n", e.Name, e.Version, e.Path)
	}
	return 0
}

// runCompare reads two exported snapshots, or the newest two history
// entries with --last, and reports their differences. Drift exits 3 so
// scripts can tell it apart from operational failures.
func runCompare(cmd cli.Command, cfg config.Config) int {
	beforeRaw, afterRaw, err := compareInputs(cmd, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	before, err := drift.ParseDocument(beforeRaw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	after, err := drift.ParseDocument(afterRaw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	report := drift.Detect(before, after, cmd.Strict)

	if cmd.JSON {
		text, err := drift.FormatJSON(report)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Println(text)
	} else if report.HasDrift {
		fmt.Print(drift.FormatText(report))
	} else {
		fmt.Println("snapshots match")
	}

	if report.HasDrift {
		return 3
	}
	return 0
}

// compareInputs returns the raw documents to compare: the two positional
// paths, or the two most recent history entries with --last.
func compareInputs(cmd cli.Command, cfg config.Config) ([]byte, []byte, error) {
	if cmd.Last {
		store := historyStore(cfg)
		entries, err := store.Latest(2)
		if err != nil {
			return nil, nil, err
		}
		if len(entries) < 2 {
			return nil, nil, fmt.Errorf("history has %d snapshots, need two for --last", len(entries))
		}
		beforeRaw, err := store.Load(entries[0].Name)
		if err != nil {
			return nil, nil, err
		}
		afterRaw, err := store.Load(entries[1].Name)
		if err != nil {
			return nil, nil, err
		}
		return beforeRaw, afterRaw, nil
	}

	beforeRaw, err := os.ReadFile(cmd.Paths[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	afterRaw, err := os.ReadFile(cmd.Paths[1])
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	return beforeRaw, afterRaw, nil
}

// runSnapshots lists the saved history, or removes old entries with
// --prune.
func runSnapshots(cmd cli.Command, cfg config.Config) int {
	store := historyStore(cfg)

	if cmd.PruneSet {
		removed, err := store.Prune(cmd.Prune)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Printf("pruned %d snapshots\n", removed)
		return 0
	}

	entries, err := store.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	for _, entry := range entries {
		fmt.Printf("%s  %s\n", entry.Time.Format(time.RFC3339), entry.Name)
	}
	return 0
}

// reportToolError prints err to stderr, naming the configured binary
// when the failure is a missing external tool, and returns 1.
func reportToolError(err error, cfg config.Config) int {
	switch {
	case gitcli.IsNotInstalled(err):
		fmt.Fprintf(os.Stderr, "Error: git executable not found: %s\n", cfg.GitBin)
	case pipcli.IsNotInstalled(err):
		fmt.Fprintf(os.Stderr, "Error: package manager executable not found: %s\n", cfg.PipBin)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return 1
}
