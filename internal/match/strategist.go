package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"playlist-importer/internal/shared"
)

// Catalog is the remote search collaborator. Implementations are expected to
// route every call through the rate-limited caller.
type Catalog interface {
	SearchTracks(ctx context.Context, query, region string, limit int) ([]shared.Candidate, error)
}

const (
	// rawCandidateCap bounds how many deduplicated raw results are collected
	// before further queries and regions are skipped, to bound latency.
	rawCandidateCap = 50
	// perQueryLimit is the page size requested per catalog query.
	perQueryLimit = 20
	// InternalLimit is how many ranked candidates are retained for a file;
	// the interactive menu shows at most MaxDisplay of them.
	InternalLimit = 20
	// MaxDisplay caps how many candidates any menu presents.
	MaxDisplay = 5
)

// fallbackRegions are tried after the caller's preferred region. Catalog
// availability is region-gated and these recover tracks invisible in the
// primary region; the empty string is a global (region-less) search.
var fallbackRegions = []string{"JP", "US", ""}

// Strategist builds and issues catalog queries for a local track and turns
// the raw results into a ranked candidate list.
type Strategist struct {
	catalog Catalog
	log     *slog.Logger
}

// NewStrategist creates a Strategist on top of the given catalog collaborator.
func NewStrategist(catalog Catalog, log *slog.Logger) *Strategist {
	return &Strategist{catalog: catalog, log: log}
}

// FindCandidates runs the full query strategy for lt and returns candidates
// scored against lt, sorted descending, truncated to limit. A track with no
// usable metadata yields an empty list, not an error.
func (s *Strategist) FindCandidates(ctx context.Context, lt shared.LocalTrack, region string, limit int) ([]shared.Candidate, error) {
	queries := BuildQueries(lt)
	if len(queries) == 0 {
		return nil, nil
	}
	raw, err := s.collect(ctx, queries, RegionSequence(region))
	if err != nil {
		return nil, err
	}
	s.log.Debug("search complete", "path", lt.Path, "queries", len(queries), "raw_candidates", len(raw))
	return Rank(lt, raw, limit), nil
}

// SearchManual issues a single free-text query across the region fallback
// sequence and returns the deduplicated raw results, unscored.
func (s *Strategist) SearchManual(ctx context.Context, query, region string, limit int) ([]shared.Candidate, error) {
	if query == "" {
		return nil, nil
	}
	raw, err := s.collect(ctx, []string{query}, RegionSequence(region))
	if err != nil {
		return nil, err
	}
	return capLen(raw, limit), nil
}

// SearchAlternate runs the multi-strategy search for user-supplied
// replacement title/artist fields across the region fallback sequence.
func (s *Strategist) SearchAlternate(ctx context.Context, title, artist, region string, limit int) ([]shared.Candidate, error) {
	queries := AlternateQueries(title, artist)
	if len(queries) == 0 {
		return nil, nil
	}
	raw, err := s.collect(ctx, queries, RegionSequence(region))
	if err != nil {
		return nil, err
	}
	return capLen(raw, limit), nil
}

// collect issues every query against every region in order, deduplicating by
// catalog URI, until the raw candidate cap is reached.
func (s *Strategist) collect(ctx context.Context, queries, regions []string) ([]shared.Candidate, error) {
	seen := make(map[string]bool)
	var out []shared.Candidate
	for _, region := range regions {
		for _, query := range queries {
			results, err := s.catalog.SearchTracks(ctx, query, region, perQueryLimit)
			if err != nil {
				return nil, fmt.Errorf("search %q failed: %w", query, err)
			}
			for _, c := range results {
				if c.URI == "" || seen[c.URI] {
					continue
				}
				seen[c.URI] = true
				out = append(out, c)
			}
			if len(out) >= rawCandidateCap {
				return out, nil
			}
		}
	}
	return out, nil
}

// BuildQueries returns the ordered query strategy for a local track, most to
// least specific. The distinct shapes are: ISRC-exact, quoted structured,
// plain concatenation, unquoted structured, and cleaned variants; duplicates
// produced by fields that were already clean are pruned.
func BuildQueries(lt shared.LocalTrack) []string {
	var queries []string
	if lt.ISRC != "" {
		queries = append(queries, "isrc:"+lt.ISRC)
	}

	title := StripSuffixes(lt.Title)
	artist := RemoveFeat(lt.Artist)

	switch {
	case title != "" && artist != "":
		queries = append(queries,
			fmt.Sprintf("track:%q artist:%q", title, artist),
			fmt.Sprintf("%s %s", title, artist),
			fmt.Sprintf("track:%s artist:%s", title, artist),
			fmt.Sprintf("%s %s", RemoveFeat(title), RemoveFeat(artist)),
		)
	case title != "":
		queries = append(queries, fmt.Sprintf("track:%q", title), title)
	case artist != "":
		queries = append(queries, fmt.Sprintf("artist:%q", artist))
	}
	return dedupe(queries)
}

// AlternateQueries builds the strategy list for the arbitration "alternate
// title/artist" path: plain concatenation first (closest to how the catalog's
// own UI searches), then quoted and unquoted structured forms.
func AlternateQueries(title, artist string) []string {
	var queries []string
	switch {
	case title != "" && artist != "":
		queries = append(queries,
			fmt.Sprintf("%s %s", title, artist),
			fmt.Sprintf("track:%q artist:%q", title, artist),
			fmt.Sprintf("track:%s artist:%s", title, artist),
		)
	case title != "":
		queries = append(queries, title, fmt.Sprintf("track:%q", title), "track:"+title)
	case artist != "":
		queries = append(queries, artist, fmt.Sprintf("artist:%q", artist), "artist:"+artist)
	}
	return dedupe(queries)
}

// RegionSequence returns the regions to search, starting with the preferred
// one and falling back through the fixed alternates, ending with a global
// search. Duplicates are dropped while preserving order.
func RegionSequence(primary string) []string {
	seq := make([]string, 0, len(fallbackRegions)+1)
	if primary != "" {
		seq = append(seq, primary)
	}
	for _, r := range fallbackRegions {
		seq = append(seq, r)
	}
	return dedupe(seq)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func capLen(cands []shared.Candidate, limit int) []shared.Candidate {
	if limit > 0 && len(cands) > limit {
		return cands[:limit]
	}
	return cands
}

func sortByScore(cands []shared.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}
