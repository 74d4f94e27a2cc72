package match

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// TokenSetRatio computes a word-overlap similarity in [0,1] that is
// insensitive to word order and duplication: both strings are split into
// token sets and the best pairwise similarity between the shared-token
// string and each full sorted-token string is returned. Returns 0 if either
// side has no tokens.
func TokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	shared := strings.Join(inter, " ")
	full1 := strings.TrimSpace(shared + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(shared + " " + strings.Join(onlyB, " "))

	lev := metrics.NewLevenshtein()
	best := strutil.Similarity(shared, full1, lev)
	if s := strutil.Similarity(shared, full2, lev); s > best {
		best = s
	}
	if s := strutil.Similarity(full1, full2, lev); s > best {
		best = s
	}
	return best
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
