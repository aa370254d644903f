package provenance

import (
	"fmt"
	"os"
	"strings"

	"provenance/pipcli"
)

// AddPackages collects the installed package list and stores it under
// the snapshot's packages key; the key stays absent until a collection
// runs. Returns the list. Freezing may be slow or fail outright when the
// package manager is absent, which is why it never runs implicitly.
func (c *Context) AddPackages() ([]string, error) {
	pkgs, err := c.Freezer.Freeze()
	if err != nil {
		return nil, fmt.Errorf("freeze packages: %w", err)
	}
	c.Snapshot["packages"] = pkgs
	return pkgs, nil
}

// FindEditables refreshes the package list and extracts the editable
// (locally developed) installs from it. Best-effort by nature: it reads
// the freeze text, which is not a stable format, and fails loudly when
// the editable motif stops parsing.
func (c *Context) FindEditables() ([]pipcli.Editable, error) {
	pkgs, err := c.AddPackages()
	if err != nil {
		return nil, err
	}
	return pipcli.ParseEditables(pkgs)
}

// TrackEditables records the source repository of every editable
// install, diffs included. Editable checkouts are usually
// mid-development, so callers typically pass allowDirty=true.
func (c *Context) TrackEditables(allowDirty bool) error {
	editables, err := c.FindEditables()
	if err != nil {
		return err
	}
	for _, e := range editables {
		c.log.Info("tracking editable package repository",
			"package", e.Name, "version", e.Version, "path", e.Path)
		if err := c.AddRepo(e.Path, allowDirty, false, true); err != nil {
			return fmt.Errorf("editable %s: %w", e.Name, err)
		}
	}
	return nil
}

// ExportRequirements writes the installed package list to path as a
// requirements file with a generation header, collecting the list first
// when the snapshot has none. A non-empty message is inserted between
// the header and the packages.
func (c *Context) ExportRequirements(path, message string) error {
	pkgs, ok := c.Snapshot["packages"].([]string)
	if !ok {
		var err error
		pkgs, err = c.AddPackages()
		if err != nil {
			return err
		}
	}
	interp, _ := c.Snapshot["interpreter"].(InterpreterInfo)

	var b strings.Builder
	fmt.Fprintf(&b, "# Requirements generated by provenance\n# under %s %s, on %s\n\n",
		interp.Implementation, interp.Version, Timestamp())
	if message != "" {
		b.WriteString(message + "\n")
	}
	b.WriteString(strings.Join(pkgs, "\n") + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("export requirements %s: %w", path, err)
	}
	return nil
}
