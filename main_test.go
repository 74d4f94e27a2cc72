package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointPath(t *testing.T) {
	got := checkpointPath(".cache", "", "pl1")
	want := filepath.Join(".cache", "checkpoint-pl1.json")
	if got != want {
		t.Errorf("checkpointPath default = %q, want %q", got, want)
	}

	if got := checkpointPath(".cache", "/tmp/my-run.json", "pl1"); got != "/tmp/my-run.json" {
		t.Errorf("checkpointPath override = %q, want the override verbatim", got)
	}
}

func TestLatestNDJSON(t *testing.T) {
	dir := t.TempDir()
	if got := latestNDJSON(dir); got != "" {
		t.Errorf("latestNDJSON(empty dir) = %q, want empty", got)
	}

	for _, name := range []string{
		"import-20250101_120000.ndjson",
		"import-20250102_090000.ndjson",
		"import-20250101_120000.csv",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	want := filepath.Join(dir, "import-20250102_090000.ndjson")
	if got := latestNDJSON(dir); got != want {
		t.Errorf("latestNDJSON = %q, want %q", got, want)
	}
}
