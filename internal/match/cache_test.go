package match

import (
	"testing"

	"playlist-importer/internal/shared"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache()
	lt := shared.LocalTrack{Title: "Song A (Remastered)", Artist: "Artist B feat. C"}

	if _, ok := c.Get(lt); ok {
		t.Fatal("Get on empty cache should miss")
	}

	c.Put(lt, []shared.Candidate{{URI: "u1", Name: "Song A", Score: 0.97}})

	got, ok := c.Get(lt)
	if !ok {
		t.Fatal("Get should hit after Put")
	}
	if len(got) != 1 || got[0].URI != "u1" {
		t.Fatalf("Get = %#v, want the stored candidate", got)
	}
	if got[0].Score != 0 {
		t.Errorf("cached candidate Score = %v, want 0 (stale scores must not leak)", got[0].Score)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	c := NewCache()
	c.Put(shared.LocalTrack{Title: "Song A", Artist: "Artist B"}, []shared.Candidate{{URI: "u1"}})

	// Same track after noise stripping and case folding.
	variant := shared.LocalTrack{Title: "song a (Live)", Artist: "artist b feat. someone"}
	if _, ok := c.Get(variant); !ok {
		t.Error("Get should hit for the normalized-equal variant")
	}

	other := shared.LocalTrack{Title: "Song B", Artist: "Artist B"}
	if _, ok := c.Get(other); ok {
		t.Error("Get should miss for a different title")
	}
}

func TestCacheIsolation(t *testing.T) {
	c := NewCache()
	lt := shared.LocalTrack{Title: "Song A", Artist: "Artist B"}
	cands := []shared.Candidate{{URI: "u1"}}
	c.Put(lt, cands)

	// Mutating either the input or an earlier Get result must not affect
	// what the cache hands out next.
	cands[0].URI = "mutated"
	first, _ := c.Get(lt)
	first[0].Score = 0.5

	second, _ := c.Get(lt)
	if second[0].URI != "u1" {
		t.Errorf("cache stored aliased slice: URI = %q", second[0].URI)
	}
	if second[0].Score != 0 {
		t.Errorf("cache returned aliased slice: Score = %v", second[0].Score)
	}
}
