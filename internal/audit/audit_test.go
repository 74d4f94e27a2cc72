package audit

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playlist-importer/internal/logging"
	"playlist-importer/internal/shared"
)

func sampleRecords() []Record {
	score := 0.95
	return []Record{
		{
			Path: "/music/a.mp3", Title: "Song A", Artist: "Artist B", Album: "Album C",
			DurationMS: 215000, Year: 2001, ISRC: "USRC12345678",
			Decision: shared.StatusAdded, Score: &score, URI: "spotify:track:1",
		},
		{
			Path: "/music/b.mp3", Title: "Song B", Artist: "Artist B",
			Decision: shared.StatusNotFound,
		},
		{
			Path: "/music/c.mp3", Title: "Song C", Artist: "Artist B",
			Decision: shared.StatusAdded, URI: "spotify:track:3",
		},
	}
}

func writeSample(t *testing.T, dir string) *Writer {
	t.Helper()
	w, err := NewWriter(dir, logging.Discard())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, rec := range sampleRecords() {
		w.Add(rec)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return w
}

func findReport(t *testing.T, dir, suffix string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(dir, e.Name())
		}
	}
	t.Fatalf("no report matching *%s in %s", suffix, dir)
	return ""
}

func TestWriterCSV(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir)

	f, err := os.Open(findReport(t, dir, ".csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("CSV has %d rows, want header + 3 records", len(rows))
	}
	if rows[0][0] != "path" || rows[0][7] != "decision" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][7] != shared.StatusAdded || rows[1][8] != "0.9500" {
		t.Errorf("first record row = %v", rows[1])
	}
	if rows[2][8] != "" {
		t.Errorf("missing score should be empty, got %q", rows[2][8])
	}
}

func TestWriterNDJSON(t *testing.T) {
	dir := t.TempDir()
	w := writeSample(t, dir)

	data, err := os.ReadFile(w.NDJSONPath())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("NDJSON has %d lines, want 3", len(lines))
	}
	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("first line does not parse: %v", err)
	}
	if rec.Path != "/music/a.mp3" || rec.Score == nil || *rec.Score != 0.95 {
		t.Errorf("first record = %+v", rec)
	}
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Score != nil {
		t.Errorf("record without score decoded Score = %v, want nil", *rec.Score)
	}
}

func TestWriterOutcomeLists(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir)

	added, err := os.ReadFile(findReport(t, dir, "-"+shared.StatusAdded+".txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(added)); got != "/music/a.mp3\n/music/c.mp3" {
		t.Errorf("ADDED list = %q", got)
	}

	notFound, err := os.ReadFile(findReport(t, dir, "-"+shared.StatusNotFound+".txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(notFound)); got != "/music/b.mp3" {
		t.Errorf("NOT_FOUND list = %q", got)
	}

	// No SKIPPED records, so no SKIPPED list.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), shared.StatusSkipped) {
			t.Errorf("unexpected outcome list %s", e.Name())
		}
	}
}
