// Package gitcli reads version-control state by invoking the git binary
// and interpreting its output. Nothing is reimplemented: dirtiness,
// commit identity and diffs all come straight from git itself.
package gitcli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when no git checkout encloses a path.
var ErrNotRepository = errors.New("not a git repository")

// ExecError reports a git invocation that failed.
type ExecError struct {
	Args   []string // arguments git was invoked with
	Stderr string   // captured standard error, may be empty
	Err    error    // underlying cause, typically *exec.ExitError
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// Runner answers repository questions by running git. The zero value
// invokes "git" from PATH.
type Runner struct {
	// Bin is the git executable to invoke. Empty means "git".
	Bin string
}

// Resolve returns the root of the checkout enclosing path; git itself
// searches parent directories. Returns ErrNotRepository (wrapped) when
// path is not inside a checkout.
func (r Runner) Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	out, err := r.run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		var xe *ExecError
		if errors.As(err, &xe) && strings.Contains(xe.Stderr, "not a git repository") {
			return "", fmt.Errorf("%w at %s", ErrNotRepository, path)
		}
		return "", err
	}
	return out, nil
}

// Status reports whether the checkout at root has uncommitted changes to
// tracked files, and whether untracked files are present.
func (r Runner) Status(root string) (tracked, untracked bool, err error) {
	out, err := r.run(root, "status", "--porcelain", "--untracked-files=normal")
	if err != nil {
		return false, false, err
	}
	tracked, untracked = classifyStatus(out)
	return tracked, untracked, nil
}

// Head returns the commit hash HEAD points at.
func (r Runner) Head(root string) (string, error) {
	return r.run(root, "rev-parse", "HEAD")
}

// Diff returns the patch between HEAD and the working tree, staged
// changes included. The text has no trailing newline.
func (r Runner) Diff(root string) (string, error) {
	return r.run(root, "diff", "HEAD")
}

// Version returns the git version banner, e.g. "git version 2.43.0".
func (r Runner) Version() (string, error) {
	return r.run("", "version")
}

// IsNotInstalled reports whether err came from this package and means
// the git binary could not be found on PATH.
func IsNotInstalled(err error) bool {
	var xe *ExecError
	return errors.As(err, &xe) && errors.Is(err, exec.ErrNotFound)
}

func (r Runner) bin() string {
	if r.Bin != "" {
		return r.Bin
	}
	return "git"
}

// run executes git with args in dir (empty dir means the current
// directory) and returns stdout with trailing newlines removed.
func (r Runner) run(dir string, args ...string) (string, error) {
	cmd := exec.Command(r.bin(), args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &ExecError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// classifyStatus splits porcelain v1 output into tracked-change and
// untracked-file flags. Untracked entries are marked "??"; every other
// entry is a change to a tracked file.
func classifyStatus(out string) (tracked, untracked bool) {
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "??") {
			untracked = true
		} else {
			tracked = true
		}
	}
	return tracked, untracked
}
