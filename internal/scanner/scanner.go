// Package scanner walks a music library and returns the audio files to
// import, in deterministic walk order.
package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"playlist-importer/internal/shared"
)

// Options controls which files a scan yields.
type Options struct {
	// Extensions without the leading dot; empty means shared.DefaultExtensions.
	Extensions []string
	// Recursive descends into subdirectories.
	Recursive bool
	// IgnoreHidden skips dot-prefixed files and directories.
	IgnoreHidden bool
	// FollowSymlinks resolves symlinked files; symlinked directories are
	// never followed to avoid cycles.
	FollowSymlinks bool
	// ExcludeDirs is a set of directory base names to skip entirely.
	ExcludeDirs []string
}

// DefaultOptions matches the usual library layout: recursive, hidden files
// ignored, symlinks left alone.
func DefaultOptions() Options {
	return Options{
		Recursive:    true,
		IgnoreHidden: true,
	}
}

// Scan walks root and returns paths of matching audio files. A single file
// as root is returned as-is when its extension matches.
func Scan(root string, opts Options, log *slog.Logger) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	allowed := extensionSet(opts.Extensions)
	if !info.IsDir() {
		if !allowed[strings.ToLower(strings.TrimPrefix(filepath.Ext(root), "."))] {
			return nil, fmt.Errorf("%s is not a recognized audio file", root)
		}
		return []string{root}, nil
	}

	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		base := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive || excluded[base] || (opts.IgnoreHidden && strings.HasPrefix(base, ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if opts.IgnoreHidden && strings.HasPrefix(base, ".") {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				return nil
			}
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				return nil
			}
		}
		if allowed[strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))] {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, walkErr)
	}
	log.Info("scan complete", "root", root, "files", len(files))
	return files, nil
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = shared.DefaultExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return set
}
