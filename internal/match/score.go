package match

import (
	"strings"

	"playlist-importer/internal/shared"
)

// Sub-score weights. Dimensions whose preconditions do not hold are left out
// and the average renormalizes over the weights actually used, so missing
// metadata neither zeroes nor inflates the result.
const (
	weightTitle    = 0.4
	weightArtist   = 0.4
	weightAlbum    = 0.1
	weightDuration = 0.1
)

// Duration proximity: full score within 3s, linear decay to zero at 30s.
const (
	durationFullMS = 3000
	durationZeroMS = 30000
)

// Score computes the similarity between a local track and one catalog
// candidate, in [0,1]. Deterministic, no side effects, no remote calls.
func Score(lt shared.LocalTrack, c shared.Candidate) float64 {
	localTitle := StripSuffixes(lt.Title)
	localArtist := RemoveFeat(lt.Artist)
	localAlbum := StripSuffixes(lt.Album)

	candTitle := StripSuffixes(c.Name)
	candArtist := strings.Join(c.Artists, ", ")
	candAlbum := StripSuffixes(c.Album)

	titleScore := TokenSetRatio(localTitle, candTitle)
	artistScore := TokenSetRatio(localArtist, candArtist)
	albumScore := TokenSetRatio(localAlbum, candAlbum)
	durationScore := durationProximity(lt.DurationMS, c.DurationMS)

	var weightSum, scoreSum float64
	if localTitle != "" && candTitle != "" {
		weightSum += weightTitle
		scoreSum += weightTitle * titleScore
	}
	if localArtist != "" && candArtist != "" {
		weightSum += weightArtist
		scoreSum += weightArtist * artistScore
	}
	if albumScore > 0 && localAlbum != "" && candAlbum != "" {
		weightSum += weightAlbum
		scoreSum += weightAlbum * albumScore
	}
	if lt.DurationMS > 0 && c.DurationMS > 0 {
		weightSum += weightDuration
		scoreSum += weightDuration * durationScore
	}
	if weightSum == 0 {
		weightSum = 1
	}
	base := scoreSum / weightSum

	var bonus float64
	if lt.Year > 0 && c.ReleaseYear > 0 && abs(lt.Year-c.ReleaseYear) <= 1 {
		bonus += 0.02
	}
	if lt.TrackNumber > 0 && c.TrackNumber > 0 {
		switch abs(lt.TrackNumber - c.TrackNumber) {
		case 0:
			bonus += 0.02
		case 1:
			bonus += 0.01
		}
	}

	return clamp(base+bonus, 0, 1)
}

// Rank scores every candidate against lt and returns a fresh list sorted by
// descending score, truncated to limit. The input slice is not modified.
func Rank(lt shared.LocalTrack, cands []shared.Candidate, limit int) []shared.Candidate {
	ranked := make([]shared.Candidate, len(cands))
	copy(ranked, cands)
	for i := range ranked {
		ranked[i].Score = Score(lt, ranked[i])
	}
	sortByScore(ranked)
	if limit < 1 {
		limit = 1
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func durationProximity(localMS, candMS int) float64 {
	if localMS <= 0 || candMS <= 0 {
		return 0
	}
	delta := abs(localMS - candMS)
	if delta <= durationFullMS {
		return 1
	}
	return clamp(1-float64(delta-durationFullMS)/float64(durationZeroMS-durationFullMS), 0, 1)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
