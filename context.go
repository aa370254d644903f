// Package provenance records the circumstances of a program run so the
// run can be reproduced later: platform and toolchain identity, command
// line, CPU capabilities, installed packages, version-control state,
// input and output file fingerprints, caller-chosen parameters, and
// random generator state. A Context gathers these into a Snapshot that
// renders deterministically to JSON or YAML.
package provenance

import (
	"encoding"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"provenance/gitcli"
	"provenance/pipcli"
)

// RepoInspector answers version-control questions about a path. The
// production implementation shells out to git; tests and embedders may
// substitute their own.
type RepoInspector interface {
	// Resolve returns the root of the checkout enclosing path, or an
	// error matching ErrRepositoryNotFound when there is none.
	Resolve(path string) (string, error)
	// Status reports uncommitted changes to tracked files and the
	// presence of untracked files in the checkout at root.
	Status(root string) (tracked, untracked bool, err error)
	// Head returns the commit hash the checkout is at.
	Head(root string) (string, error)
	// Diff returns the patch between the last commit and the working
	// tree, staged changes included.
	Diff(root string) (string, error)
	// Version identifies the inspecting tool, e.g. "git version 2.43.0".
	Version() (string, error)
}

// PackageFreezer lists the installed packages in requirements form.
type PackageFreezer interface {
	Freeze() ([]string, error)
}

// Options configures a Context.
type Options struct {
	// CPUInfo includes a detailed processor record in the snapshot.
	CPUInfo bool

	// Packages collects the installed package list at construction.
	// The collection shells out to the package manager, which may be
	// slow or absent; it can also happen later with AddPackages.
	Packages bool

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions enables the CPU record and defers package collection.
func DefaultOptions() Options {
	return Options{CPUInfo: true}
}

// Context gathers provenance data, some automatically at construction
// and some through the add methods. Create contexts with New or
// NewDefault; the zero value has no snapshot to record into.
//
// A Context is not safe for concurrent use. Every operation runs
// synchronously and returns before the next may start.
type Context struct {
	// Snapshot is the live document. It may be read and edited freely.
	Snapshot Snapshot

	// Inspector answers repository questions. Defaults to a git runner;
	// swap it before use to target another tool or to stub repositories
	// in tests.
	Inspector RepoInspector

	// Freezer lists installed packages. Defaults to a pip runner.
	Freezer PackageFreezer

	opts Options
	log  *slog.Logger
}

// New creates a Context and collects the base snapshot. When
// opts.Packages is set the installed package list is collected too, and
// a freeze failure fails construction.
func New(opts Options) (*Context, error) {
	c := newBase(opts)
	if opts.Packages {
		if _, err := c.AddPackages(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewDefault creates a Context with DefaultOptions. It cannot fail:
// the default options run no external tools.
func NewDefault() *Context {
	return newBase(DefaultOptions())
}

func newBase(opts Options) *Context {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{
		Snapshot:  baseSnapshot(opts.CPUInfo),
		Inspector: gitcli.Runner{},
		Freezer:   pipcli.Runner{},
		opts:      opts,
		log:       log,
	}
}

// Reset discards everything recorded and recollects the base snapshot,
// as if the Context had just been created. Repositories, files, data and
// random state are all dropped; the package list is recollected only
// when the Context was built with Options.Packages.
func (c *Context) Reset() error {
	c.Snapshot = baseSnapshot(c.opts.CPUInfo)
	if c.opts.Packages {
		if _, err := c.AddPackages(); err != nil {
			return err
		}
	}
	return nil
}

// AddData records a caller-chosen value under key in the snapshot's data
// section and returns the value unchanged, so call sites can wrap an
// assignment in place. Values must be serializable by the render formats
// in use.
func (c *Context) AddData(key string, value any) any {
	c.dataMap()[key] = value
	return value
}

// AddRandomState records the state of a random source, hex-encoded, with
// the capture time. Call it right after seeding and before any draws;
// restoring the recorded state reproduces the whole sequence, which
// works even when the seed itself was never known (e.g. time-based
// seeding). Sources from math/rand/v2 (PCG, ChaCha8) implement
// encoding.BinaryMarshaler directly.
func (c *Context) AddRandomState(src encoding.BinaryMarshaler) error {
	state, err := src.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal random state: %w", err)
	}
	c.Snapshot["random"] = RandomState{
		State:     hex.EncodeToString(state),
		Timestamp: Timestamp(),
	}
	return nil
}

// dataMap returns the data section, creating it when missing.
func (c *Context) dataMap() map[string]any {
	if m, ok := c.Snapshot["data"].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	c.Snapshot["data"] = m
	return m
}
