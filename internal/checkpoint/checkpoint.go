// Package checkpoint persists per-file progress so an interrupted run can
// resume without re-searching files it already settled.
package checkpoint

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Entry is the recorded outcome for one processed file. URI and Score are
// nil for files that ended without an accepted match.
type Entry struct {
	URI   *string  `json:"uri"`
	Score *float64 `json:"score"`
}

type state struct {
	Processed map[string]Entry `json:"processed"`
}

// Store holds the processed-file set for one playlist import run.
type Store struct {
	path      string
	processed map[string]Entry
	log       *slog.Logger
}

// Key canonicalizes a local path so the same file matches across runs
// started from different working directories or with different casing.
func Key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return strings.ToLower(filepath.Clean(abs))
}

// Load reads the checkpoint at path. A missing file means a fresh run and
// starts empty. A corrupt file is never fatal: it falls back to rebuilding
// the set from the latest audit log at auditPath, and failing that starts
// empty.
func Load(path, auditPath string, log *slog.Logger) *Store {
	s := &Store{path: path, processed: make(map[string]Entry), log: log}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Info("no checkpoint, starting fresh", "path", path)
		return s
	}
	if err == nil {
		var st state
		if jsonErr := json.Unmarshal(data, &st); jsonErr == nil && st.Processed != nil {
			s.processed = st.Processed
			log.Info("checkpoint loaded", "path", path, "entries", len(s.processed))
			return s
		}
	}
	log.Warn("checkpoint unreadable, trying audit log", "path", path)

	if auditPath != "" {
		if n := s.loadFromAudit(auditPath); n > 0 {
			log.Info("checkpoint rebuilt from audit log", "path", auditPath, "entries", n)
			return s
		}
	}
	log.Info("starting with empty checkpoint", "path", path)
	return s
}

// auditRecord mirrors the fields the audit NDJSON writer emits; only the
// ones needed to reconstruct the processed set are decoded.
type auditRecord struct {
	Path     string   `json:"path"`
	Decision string   `json:"decision"`
	Score    *float64 `json:"score"`
	URI      string   `json:"uri"`
}

func (s *Store) loadFromAudit(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec auditRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Path == "" {
			continue
		}
		entry := Entry{Score: rec.Score}
		if rec.URI != "" {
			uri := rec.URI
			entry.URI = &uri
		}
		s.processed[Key(rec.Path)] = entry
		count++
	}
	return count
}

// Seen reports whether the file was already processed in a previous run.
func (s *Store) Seen(path string) bool {
	_, ok := s.processed[Key(path)]
	return ok
}

// Record marks a file as processed. Pass empty uri and nil score for files
// that ended without an accepted match.
func (s *Store) Record(path, uri string, score *float64) {
	entry := Entry{Score: score}
	if uri != "" {
		entry.URI = &uri
	}
	s.processed[Key(path)] = entry
}

// Len is the number of processed files.
func (s *Store) Len() int {
	return len(s.processed)
}

// Save writes the checkpoint atomically. Errors are logged, not returned:
// a failed save must not stop the import.
func (s *Store) Save() {
	data, err := json.MarshalIndent(state{Processed: s.processed}, "", "  ")
	if err != nil {
		s.log.Error("checkpoint marshal failed", "error", err)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.Error("checkpoint dir create failed", "path", dir, "error", err)
			return
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error("checkpoint write failed", "path", tmp, "error", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error("checkpoint rename failed", "path", s.path, "error", err)
	}
}
