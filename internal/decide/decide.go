// Package decide turns a ranked candidate list into a single accept/reject
// outcome: automatic thresholds first, interactive arbitration otherwise.
package decide

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"playlist-importer/internal/match"
	"playlist-importer/internal/shared"
)

// Outcome is the terminal state of a decision.
type Outcome int

const (
	// Rejected maps to NOT_FOUND or SKIPPED upstream depending on whether
	// any candidates existed.
	Rejected Outcome = iota
	// Accepted carries the chosen catalog URI.
	Accepted
	// Aborted propagates the user's request to stop the whole run.
	Aborted
)

// Decision is the result of deciding one file.
type Decision struct {
	Outcome Outcome
	URI     string
	Score   float64
}

// Searcher is the rescue-search collaborator used inside arbitration.
type Searcher interface {
	// SearchManual issues one free-text query across the region fallback
	// sequence and returns unscored candidates.
	SearchManual(ctx context.Context, query, region string, limit int) ([]shared.Candidate, error)
	// SearchAlternate runs the multi-strategy search for replacement
	// title/artist fields and returns unscored candidates.
	SearchAlternate(ctx context.Context, title, artist, region string, limit int) ([]shared.Candidate, error)
}

// Matches open.spotify.com/track/<id> links as well as spotify:track:<id> URIs.
var trackLinkRe = regexp.MustCompile(`(?:track[/:]|tracks/)([A-Za-z0-9]+)`)

// ParseTrackLink extracts a catalog track URI from a pasted link or URI,
// tolerating query strings and either URL or URI form.
func ParseTrackLink(link string) (string, bool) {
	m := trackLinkRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return "spotify:track:" + m[1], true
}

// Engine applies the decision policy for one candidate list at a time.
// Input and output are injected so tests can drive the arbitration state
// machine with scripted input; it has no time-based transitions.
type Engine struct {
	AutoAccept float64
	// AutoDeny below zero disables the auto-deny rule.
	AutoDeny float64
	MaxShow  int
	Searcher Searcher

	in  *bufio.Scanner
	out io.Writer
}

// NewEngine creates an Engine reading arbitration input from in and writing
// menus and prompts to out.
func NewEngine(autoAccept, autoDeny float64, maxShow int, searcher Searcher, in io.Reader, out io.Writer) *Engine {
	if maxShow < 1 {
		maxShow = 1
	}
	if maxShow > match.MaxDisplay {
		maxShow = match.MaxDisplay
	}
	return &Engine{
		AutoAccept: autoAccept,
		AutoDeny:   autoDeny,
		MaxShow:    maxShow,
		Searcher:   searcher,
		in:         bufio.NewScanner(in),
		out:        out,
	}
}

// Decide resolves one file. Thresholds are inclusive: a top score exactly at
// AutoAccept accepts, exactly at AutoDeny rejects; anything in between goes
// to interactive arbitration.
func (e *Engine) Decide(ctx context.Context, cands []shared.Candidate, lt shared.LocalTrack, region string) (Decision, error) {
	if len(cands) == 0 {
		return Decision{Outcome: Rejected}, nil
	}
	best := cands[0]
	if best.Score >= e.AutoAccept {
		return Decision{Outcome: Accepted, URI: best.URI, Score: best.Score}, nil
	}
	if e.AutoDeny >= 0 && best.Score <= e.AutoDeny {
		return Decision{Outcome: Rejected}, nil
	}
	return e.arbitrate(ctx, cands, lt, region)
}

// arbitrate runs the blocking menu loop until a terminal state is reached.
func (e *Engine) arbitrate(ctx context.Context, cands []shared.Candidate, lt shared.LocalTrack, region string) (Decision, error) {
	e.printLocalTrack(lt)
	e.printCandidates(cands)

	for {
		regionLabel := region
		if regionLabel == "" {
			regionLabel = "global"
		}
		fmt.Fprintf(e.out, "[1-%d] select, [s]kip, [m]anual, [a]lternate, [l]ink, [c]hange market [%s], [q]uit > ", e.shown(cands), regionLabel)

		choice, err := shared.ReadLine(e.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Input stream gone: treat like quit so the run can checkpoint.
				return Decision{Outcome: Aborted}, nil
			}
			return Decision{}, err
		}

		switch strings.ToLower(choice) {
		case "q", "quit":
			return Decision{Outcome: Aborted}, nil
		case "", "s", "skip":
			return Decision{Outcome: Rejected}, nil
		case "l", "link":
			if dec, ok := e.acceptLink(); ok {
				return dec, nil
			}
		case "c", "change", "market":
			region = e.changeRegion(region)
		case "m", "manual":
			cands = e.manualSearch(ctx, cands, lt, region)
			e.printCandidates(cands)
		case "a", "alternate":
			cands = e.alternateSearch(ctx, cands, lt, region)
			e.printCandidates(cands)
		default:
			if idx, err := strconv.Atoi(choice); err == nil {
				if idx >= 1 && idx <= e.shown(cands) {
					picked := cands[idx-1]
					return Decision{Outcome: Accepted, URI: picked.URI, Score: picked.Score}, nil
				}
			}
			fmt.Fprintln(e.out, "Invalid input, try again.")
		}
	}
}

// shown is how many of the current candidates the menu offers.
func (e *Engine) shown(cands []shared.Candidate) int {
	if len(cands) < e.MaxShow {
		return len(cands)
	}
	return e.MaxShow
}

// acceptLink prompts for a pasted catalog link and accepts the referenced
// track directly, without scoring.
func (e *Engine) acceptLink() (Decision, bool) {
	fmt.Fprint(e.out, "Paste the track link (e.g. https://open.spotify.com/track/...): ")
	link, err := shared.ReadLine(e.in)
	if err != nil || link == "" {
		return Decision{}, false
	}
	uri, ok := ParseTrackLink(link)
	if !ok {
		fmt.Fprintln(e.out, "Invalid link. Expected format: https://open.spotify.com/track/<id>")
		return Decision{}, false
	}
	fmt.Fprintf(e.out, "Extracted URI: %s\n", uri)
	return Decision{Outcome: Accepted, URI: uri}, true
}

// changeRegion updates the market used by subsequent manual and alternate
// searches within this arbitration only.
func (e *Engine) changeRegion(current string) string {
	fmt.Fprintf(e.out, "Current market: %s\n", orGlobal(current))
	fmt.Fprint(e.out, "New market code (empty to cancel): ")
	input, err := shared.ReadLine(e.in)
	if err != nil || input == "" {
		return current
	}
	next := strings.ToUpper(input)
	fmt.Fprintf(e.out, "Market changed to %s\n", next)
	return next
}

// manualSearch re-runs a single-pass multi-region search for a free-text
// query and rescores the results against the local track.
func (e *Engine) manualSearch(ctx context.Context, cands []shared.Candidate, lt shared.LocalTrack, region string) []shared.Candidate {
	fmt.Fprint(e.out, "Manual query: ")
	query, err := shared.ReadLine(e.in)
	if err != nil || query == "" {
		return cands
	}
	found, err := e.Searcher.SearchManual(ctx, query, region, match.InternalLimit)
	if err != nil {
		fmt.Fprintf(e.out, "Search failed: %v\n", err)
		return cands
	}
	if len(found) == 0 {
		fmt.Fprintln(e.out, "No results.")
		return cands
	}
	return match.Rank(lt, found, match.InternalLimit)
}

// alternateSearch prompts for replacement title/artist/market fields and
// runs the multi-strategy search.
func (e *Engine) alternateSearch(ctx context.Context, cands []shared.Candidate, lt shared.LocalTrack, region string) []shared.Candidate {
	fmt.Fprint(e.out, "Title (empty if unknown): ")
	title, err := shared.ReadLine(e.in)
	if err != nil {
		return cands
	}
	fmt.Fprint(e.out, "Artist (empty if unknown): ")
	artist, err := shared.ReadLine(e.in)
	if err != nil {
		return cands
	}
	fmt.Fprintf(e.out, "Market (empty = %s): ", orGlobal(region))
	marketInput, err := shared.ReadLine(e.in)
	if err != nil {
		return cands
	}
	if title == "" && artist == "" {
		fmt.Fprintln(e.out, "Provide at least a title or an artist.")
		return cands
	}
	searchRegion := region
	if marketInput != "" {
		searchRegion = strings.ToUpper(marketInput)
	}
	found, err := e.Searcher.SearchAlternate(ctx, title, artist, searchRegion, match.InternalLimit)
	if err != nil {
		fmt.Fprintf(e.out, "Search failed: %v\n", err)
		return cands
	}
	if len(found) == 0 {
		fmt.Fprintln(e.out, "No results.")
		return cands
	}
	return match.Rank(lt, found, match.InternalLimit)
}

func orGlobal(region string) string {
	if region == "" {
		return "global"
	}
	return region
}
