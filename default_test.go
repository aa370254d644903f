package provenance

import (
	"strings"
	"testing"
)

func TestDefault_SharedInstance(t *testing.T) {
	t.Cleanup(func() {
		if err := Reset(); err != nil {
			t.Errorf("reset default context: %v", err)
		}
	})

	if Default() != Default() {
		t.Fatal("Default() returned two different contexts")
	}

	AddData("run_id", "r-001")

	data, ok := Default().Snapshot["data"].(map[string]any)
	if !ok || data["run_id"] != "r-001" {
		t.Errorf("default snapshot data = %v, want run_id recorded", Default().Snapshot["data"])
	}

	text, err := Render(FormatJSON, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, `"run_id": "r-001"`) {
		t.Errorf("render = %q, want the recorded pair", text)
	}

	if err := Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := Default().Snapshot["data"]; ok {
		t.Error("data survived package-level Reset")
	}
}

func TestDefault_FunctionArgsIntoData(t *testing.T) {
	t.Cleanup(func() {
		if err := Reset(); err != nil {
			t.Errorf("reset default context: %v", err)
		}
	})

	args, err := FunctionArgs(struct {
		Threshold float64
		Window    int
	}{Threshold: 0.75, Window: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AddData("detect_args", args)

	text, err := Render(FormatJSON, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, `"threshold": 0.75`) || !strings.Contains(text, `"window": 30`) {
		t.Errorf("render = %q, want the recorded parameters", text)
	}
}
