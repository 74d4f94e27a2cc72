// Package audit writes per-file import reports: a CSV for spreadsheets, an
// NDJSON stream for tooling, and plaintext path lists per outcome.
package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"playlist-importer/internal/shared"
)

// Record is one audited file. The JSON field names are load-bearing: the
// checkpoint package reads them back when rebuilding a lost checkpoint.
type Record struct {
	Path       string   `json:"path"`
	Title      string   `json:"title"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Year       int      `json:"year"`
	ISRC       string   `json:"isrc"`
	Decision   string   `json:"decision"`
	Score      *float64 `json:"score"`
	URI        string   `json:"uri"`
}

var csvHeader = []string{"path", "title", "artist", "album", "duration_ms", "year", "isrc", "decision", "score", "uri"}

// Writer appends records to all report files as the run progresses so a
// crash loses at most the in-flight file.
type Writer struct {
	dir  string
	stem string
	log  *slog.Logger

	csvFile *os.File
	csvW    *csv.Writer
	ndFile  *os.File

	byOutcome map[string][]string
}

// NewWriter creates timestamped report files under dir.
func NewWriter(dir string, log *slog.Logger) (*Writer, error) {
	if err := shared.CreateDirIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}
	stem := "import-" + shared.Timestamp()

	csvFile, err := os.Create(filepath.Join(dir, stem+".csv"))
	if err != nil {
		return nil, fmt.Errorf("creating CSV report: %w", err)
	}
	ndFile, err := os.Create(filepath.Join(dir, stem+".ndjson"))
	if err != nil {
		csvFile.Close()
		return nil, fmt.Errorf("creating NDJSON report: %w", err)
	}

	w := &Writer{
		dir:       dir,
		stem:      stem,
		log:       log,
		csvFile:   csvFile,
		csvW:      csv.NewWriter(csvFile),
		ndFile:    ndFile,
		byOutcome: make(map[string][]string),
	}
	if err := w.csvW.Write(csvHeader); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	return w, nil
}

// NDJSONPath is where the NDJSON stream lives; the checkpoint loader uses
// it as a fallback source.
func (w *Writer) NDJSONPath() string {
	return filepath.Join(w.dir, w.stem+".ndjson")
}

// Add appends one record to every report and flushes so the files stay
// consistent with the checkpoint.
func (w *Writer) Add(rec Record) {
	score := ""
	if rec.Score != nil {
		score = strconv.FormatFloat(*rec.Score, 'f', 4, 64)
	}
	row := []string{
		rec.Path, rec.Title, rec.Artist, rec.Album,
		strconv.Itoa(rec.DurationMS), strconv.Itoa(rec.Year), rec.ISRC,
		rec.Decision, score, rec.URI,
	}
	if err := w.csvW.Write(row); err != nil {
		w.log.Error("CSV report write failed", "path", rec.Path, "error", err)
	}
	w.csvW.Flush()

	line, err := json.Marshal(rec)
	if err == nil {
		_, err = w.ndFile.Write(append(line, '\n'))
	}
	if err != nil {
		w.log.Error("NDJSON report write failed", "path", rec.Path, "error", err)
	}

	w.byOutcome[rec.Decision] = append(w.byOutcome[rec.Decision], rec.Path)
}

// Close flushes the table reports and writes one plaintext path list per
// outcome that occurred.
func (w *Writer) Close() error {
	w.csvW.Flush()
	var firstErr error
	if err := w.csvW.Error(); err != nil {
		firstErr = err
	}
	if err := w.csvFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.ndFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	for _, status := range shared.Statuses() {
		paths := w.byOutcome[status]
		if len(paths) == 0 {
			continue
		}
		name := filepath.Join(w.dir, fmt.Sprintf("%s-%s.txt", w.stem, status))
		var body []byte
		for _, p := range paths {
			body = append(body, p...)
			body = append(body, '\n')
		}
		if err := os.WriteFile(name, body, 0o644); err != nil {
			w.log.Error("outcome list write failed", "path", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
