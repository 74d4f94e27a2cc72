// Package tags extracts search metadata from local audio files.
package tags

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"

	"playlist-importer/internal/match"
	"playlist-importer/internal/shared"
)

// tagMap wraps a taglib result map with lookup helpers.
type tagMap map[string][]string

// get returns the first value found for any of the keys.
func (t tagMap) get(keys ...string) string {
	for _, key := range keys {
		if vals, ok := t[key]; ok && len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return ""
}

func (t tagMap) getInt(keys ...string) int {
	raw := t.get(keys...)
	if raw == "" {
		return 0
	}
	// Track numbers often come as "3/12".
	if idx := strings.Index(raw, "/"); idx > 0 {
		raw = raw[:idx]
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// Read extracts metadata from the file at path. Missing individual tags are
// not errors: the caller falls back to filename inference when both title
// and artist are absent.
func Read(path string) (shared.LocalTrack, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return shared.LocalTrack{}, fmt.Errorf("reading tags from %s: %w", path, err)
	}
	tags := tagMap(raw)

	lt := shared.LocalTrack{
		Path:        path,
		Title:       tags.get(taglib.Title),
		Artist:      tags.get(taglib.Artist),
		Album:       tags.get(taglib.Album),
		ISRC:        strings.ToUpper(tags.get(taglib.ISRC)),
		TrackNumber: tags.getInt(taglib.TrackNumber),
	}
	if m := yearRe.FindString(tags.get(taglib.Date, taglib.OriginalDate, "YEAR")); m != "" {
		lt.Year, _ = strconv.Atoi(m)
	}

	props, err := taglib.ReadProperties(path)
	if err == nil {
		lt.DurationMS = int(props.Length.Milliseconds())
	}
	return lt, nil
}

// separators tried in order when splitting a filename into artist and title.
var filenameSeparators = []string{" - ", " – ", "_-_", "-", "_"}

// InferFromFilename guesses title and artist from the file name for files
// with no usable tags. "Artist - Title.mp3" and "Artist_Title.mp3" yield
// both fields; anything unsplittable becomes the title alone.
func InferFromFilename(path string) shared.LocalTrack {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = match.StripSuffixes(stem)

	lt := shared.LocalTrack{Path: path}
	for _, sep := range filenameSeparators {
		if idx := strings.Index(stem, sep); idx > 0 {
			lt.Artist = cleanStem(stem[:idx])
			lt.Title = cleanStem(stem[idx+len(sep):])
			return lt
		}
	}
	lt.Title = cleanStem(stem)
	return lt
}

func cleanStem(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}

// Load reads tags and falls back to filename inference when the file has
// neither a title nor an artist tag.
func Load(path string) (shared.LocalTrack, error) {
	lt, err := Read(path)
	if err != nil {
		return InferFromFilename(path), nil
	}
	if lt.Title == "" && lt.Artist == "" {
		inferred := InferFromFilename(path)
		inferred.DurationMS = lt.DurationMS
		return inferred, nil
	}
	if lt.Title == "" {
		lt.Title = InferFromFilename(path).Title
	}
	return lt, nil
}
