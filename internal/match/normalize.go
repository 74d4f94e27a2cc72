package match

import (
	"regexp"
	"strings"
)

// Noise-token patterns shared by scoring and query construction.
var (
	featRe = regexp.MustCompile(`(?i)\b(feat\.|ft\.)\b.*`)
	// Bracketed edition markers: (Remastered 2011), [Radio Edit], (Live)...
	editionRe  = regexp.MustCompile(`(?i)\s*[\[(][^\])]*(remaster|live|edit|version|mono|stereo|deluxe|explicit)[^\])]*[\])]`)
	bracketsRe = regexp.MustCompile(`\s*[\[(][^\])]*[\])]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// StripSuffixes removes bracketed edition markers and any remaining
// parenthesised content from a free-text field.
func StripSuffixes(text string) string {
	if text == "" {
		return text
	}
	t := editionRe.ReplaceAllString(text, "")
	t = bracketsRe.ReplaceAllString(t, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

// RemoveFeat drops a trailing "feat."/"ft." clause and everything after it.
func RemoveFeat(text string) string {
	if text == "" {
		return text
	}
	return strings.TrimSpace(featRe.ReplaceAllString(text, ""))
}

// NormalizeKey lower-cases and trims a field for use as a cache key.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
