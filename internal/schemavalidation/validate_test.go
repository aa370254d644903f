package schemavalidation

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"provenance"
)

type stubInspector struct{}

func (stubInspector) Resolve(path string) (string, error) { return path, nil }
func (stubInspector) Status(root string) (bool, bool, error) {
	return true, false, nil
}
func (stubInspector) Head(root string) (string, error) {
	return "83baa4e2a0e23a43acd3d337d40e843f33b87e98", nil
}
func (stubInspector) Diff(root string) (string, error) {
	return "diff --git a/main.go b/main.go", nil
}
func (stubInspector) Version() (string, error) { return "git version 2.43.0", nil }

type stubFreezer struct{}

func (stubFreezer) Freeze() ([]string, error) {
	return []string{"acme==1.2.0", "zlib==2.0.1"}, nil
}

// exportSnapshot builds a fully populated snapshot through the public
// API and exports it as JSON.
func exportSnapshot(t *testing.T) string {
	t.Helper()

	c, err := provenance.New(provenance.Options{CPUInfo: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Inspector = stubInspector{}
	c.Freezer = stubFreezer{}

	dir := t.TempDir()
	if err := c.AddRepo(dir, true, true, true); err != nil {
		t.Fatalf("AddRepo: %v", err)
	}

	tracked := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(tracked, []byte("payload\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := c.AddFile(tracked, "inputs", false); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	if _, err := c.AddPackages(); err != nil {
		t.Fatalf("AddPackages: %v", err)
	}
	if err := c.AddRandomState(rand.NewPCG(11, 42)); err != nil {
		t.Fatalf("AddRandomState: %v", err)
	}
	c.AddData("experiment", "alpha")

	out := filepath.Join(dir, "snapshot.json")
	if _, err := c.Export(provenance.FormatJSON, out, false); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return out
}

func compileSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()

	schemaPath := filepath.Join(repoRoot(t), "docs", "schema", "snapshot-v1.schema.json")
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaPath, bytes.NewReader(schemaData)); err != nil {
		t.Fatalf("add schema resource: %v", err)
	}
	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	return schema
}

func TestExportedSnapshotMatchesSchema(t *testing.T) {
	schema := compileSchema(t)

	instanceData, err := os.ReadFile(exportSnapshot(t))
	if err != nil {
		t.Fatalf("read instance: %v", err)
	}
	var instance any
	if err := json.Unmarshal(instanceData, &instance); err != nil {
		t.Fatalf("unmarshal instance: %v", err)
	}

	if err := schema.Validate(instance); err != nil {
		t.Fatalf("schema validation failed: %v", err)
	}
}

func TestSchemaRejectsTamperedSnapshots(t *testing.T) {
	schema := compileSchema(t)

	instanceData, err := os.ReadFile(exportSnapshot(t))
	if err != nil {
		t.Fatalf("read instance: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{
			name: "missing timestamp",
			mutate: func(doc map[string]any) {
				delete(doc, "timestamp")
			},
		},
		{
			name: "timestamp without microseconds",
			mutate: func(doc map[string]any) {
				doc["timestamp"] = "2026-08-22T10:00:00Z"
			},
		},
		{
			name: "packages as scalar",
			mutate: func(doc map[string]any) {
				doc["packages"] = "acme==1.2.0"
			},
		},
		{
			name: "file digest too short",
			mutate: func(doc map[string]any) {
				files := doc["files"].(map[string]any)
				for _, category := range files {
					for _, entry := range category.(map[string]any) {
						entry.(map[string]any)["sha256"] = "deadbeef"
					}
				}
			},
		},
		{
			name: "repository without hash",
			mutate: func(doc map[string]any) {
				repos := doc["repositories"].(map[string]any)
				for _, repo := range repos {
					delete(repo.(map[string]any), "hash")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			if err := json.Unmarshal(instanceData, &doc); err != nil {
				t.Fatalf("unmarshal instance: %v", err)
			}
			tt.mutate(doc)
			if err := schema.Validate(any(doc)); err == nil {
				t.Error("validation passed, want failure")
			}
		})
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to resolve caller path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
