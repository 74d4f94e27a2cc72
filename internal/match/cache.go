package match

import "playlist-importer/internal/shared"

// Cache stores raw candidate lists keyed by normalized (title, artist) so
// repeated files with identical tags skip the remote search. Values are
// scoring-context-independent: Get returns zero-scored copies and callers
// must re-score against the current local track before ranking. Stale scores
// from a different file must never leak.
type Cache struct {
	entries map[cacheKey][]shared.Candidate
}

type cacheKey struct {
	title  string
	artist string
}

// NewCache creates an empty candidate cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey][]shared.Candidate)}
}

// Key derives the cache key for a local track.
func (c *Cache) key(lt shared.LocalTrack) cacheKey {
	return cacheKey{
		title:  NormalizeKey(StripSuffixes(lt.Title)),
		artist: NormalizeKey(RemoveFeat(lt.Artist)),
	}
}

// Get returns a zero-scored copy of the cached candidates for lt.
func (c *Cache) Get(lt shared.LocalTrack) ([]shared.Candidate, bool) {
	cands, ok := c.entries[c.key(lt)]
	if !ok {
		return nil, false
	}
	out := make([]shared.Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		out[i].Score = 0
	}
	return out, true
}

// Put stores a copy of cands for lt with scores discarded.
func (c *Cache) Put(lt shared.LocalTrack, cands []shared.Candidate) {
	stored := make([]shared.Candidate, len(cands))
	copy(stored, cands)
	for i := range stored {
		stored[i].Score = 0
	}
	c.entries[c.key(lt)] = stored
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
