// Package pipcli lists installed packages by invoking a pip-style
// package manager and interpreting its requirements output.
//
// The freeze text is not a stable contract. In particular, editable
// install detection depends on the comment format pip prints above each
// "-e" line; it is best-effort by nature and fails loudly rather than
// guessing when that format changes.
package pipcli

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ErrEditableFormat is returned when the comment above an editable
// install lacks the expected "(name==version)" suffix.
var ErrEditableFormat = errors.New("malformed editable package comment")

// Editable describes one editable (develop-mode) install: the package
// name and version from the freeze comment, and the source checkout
// path from the "-e" line itself.
type Editable struct {
	Name    string
	Version string
	Path    string
}

// ExecError reports a package manager invocation that failed.
type ExecError struct {
	Args   []string // full argument list the tool was invoked with
	Stderr string   // captured standard error, may be empty
	Err    error    // underlying cause, typically *exec.ExitError
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// Runner lists packages by running the package manager. The zero value
// invokes "pip freeze -qq".
type Runner struct {
	// Bin is the package manager executable. Empty means "pip".
	Bin string
	// Args are the listing arguments. Nil means ["freeze", "-qq"].
	Args []string
}

// Freeze returns the installed packages in requirements form, one entry
// per line of the tool's output.
func (r Runner) Freeze() ([]string, error) {
	bin, args := r.bin(), r.args()
	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ExecError{Args: append([]string{bin}, args...), Stderr: stderr.String(), Err: err}
	}
	lines := strings.Split(stdout.String(), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}

// IsNotInstalled reports whether err came from this package and means
// the package manager binary could not be found on PATH.
func IsNotInstalled(err error) bool {
	var xe *ExecError
	return errors.As(err, &xe) && errors.Is(err, exec.ErrNotFound)
}

// editableRe extracts the name and version from the comment pip prints
// above an editable install, e.g.
// "# Editable Git install with no remote (acme==1.2.0)".
var editableRe = regexp.MustCompile(`^(.*)\((?P<name>.+)==(?P<version>.+)\)$`)

// ParseEditables scans a frozen package list for editable installs.
// Each one appears as a two-line motif: a "# ..." comment immediately
// followed by "-e <path>". A comment that is present but does not carry
// the "(name==version)" suffix means the tool broke its output format;
// that returns ErrEditableFormat rather than a partial result. An "-e"
// line without a comment above it is skipped.
func ParseEditables(lines []string) ([]Editable, error) {
	var editables []Editable
	for i, line := range lines {
		if i == 0 || !strings.HasPrefix(line, "-e ") {
			continue
		}
		desc := lines[i-1]
		if !strings.HasPrefix(desc, "# ") {
			continue
		}
		m := editableRe.FindStringSubmatch(desc)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrEditableFormat, desc)
		}
		editables = append(editables, Editable{
			Name:    m[editableRe.SubexpIndex("name")],
			Version: m[editableRe.SubexpIndex("version")],
			Path:    strings.TrimSpace(line[len("-e "):]),
		})
	}
	return editables, nil
}

func (r Runner) bin() string {
	if r.Bin != "" {
		return r.Bin
	}
	return "pip"
}

func (r Runner) args() []string {
	if r.Args != nil {
		return r.Args
	}
	return []string{"freeze", "-qq"}
}
