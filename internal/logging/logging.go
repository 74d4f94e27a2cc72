// Package logging sets up the per-run log file. Console feedback stays on the
// shared color printers; the slog handle is passed explicitly to components
// that need it rather than living in a process-wide singleton.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"playlist-importer/internal/shared"
)

// NewRunLogger creates a debug-level text logger writing to
// <dir>/import-<timestamp>.log and returns the logger and the file path.
func NewRunLogger(dir string) (*slog.Logger, string, error) {
	if err := shared.CreateDirIfNotExists(dir); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("import-%s.log", shared.Timestamp()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), path, nil
}

// Discard returns a logger that drops everything, for tests and dry wiring.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
