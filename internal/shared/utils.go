package shared

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// DefaultExtensions lists the audio file extensions scanned by default.
var DefaultExtensions = []string{
	"mp3", "m4a", "aac", "flac", "ogg", "opus", "wav", "aiff", "alac", "wma", "aif",
}

// GetUserInput prompts the user for input with a default value
func GetUserInput(prompt, defaultValue string) string {
	if defaultValue != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, defaultValue)
	}
	ColorPrompt.Print(prompt + ": ")
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" && defaultValue != "" {
			return defaultValue
		}
		return input
	}
	return defaultValue
}

// ReadLine reads one trimmed line from r, returning io.EOF when the stream
// is exhausted. Interactive components take their input as an *bufio.Scanner
// so tests can drive them with scripted readers.
func ReadLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// Chunked splits items into groups of at most size elements. The remote add
// endpoint accepts at most 100 URIs per call, so batches are built with this.
func Chunked[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", size)
	}
	var chunks [][]T
	for len(items) > size {
		chunks = append(chunks, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks, nil
}

// FormatDuration renders a millisecond duration as mm:ss, "--:--" if unknown.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "--:--"
	}
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// BriefID shortens a catalog identifier for display.
func BriefID(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:3] + "..." + s[len(s)-2:]
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CreateDirIfNotExists creates a directory if it does not exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// Timestamp returns the per-run timestamp used in report and log file names.
func Timestamp() string {
	return time.Now().Format("20060102_150405")
}

// IsTTY reports whether stdout is an interactive terminal.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
