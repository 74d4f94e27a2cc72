// Package pipeline drives the batch import: for each scanned file it reads
// metadata, searches the catalog, applies the decision policy and stages
// accepted tracks for addition, checkpointing after every file.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/cheggaaa/pb/v3"

	"playlist-importer/internal/audit"
	"playlist-importer/internal/checkpoint"
	"playlist-importer/internal/decide"
	"playlist-importer/internal/match"
	"playlist-importer/internal/shared"
)

// flushThreshold is how many staged URIs trigger an early playlist add.
const flushThreshold = 100

// Searcher produces ranked candidates for a local track.
type Searcher interface {
	FindCandidates(ctx context.Context, lt shared.LocalTrack, region string, limit int) ([]shared.Candidate, error)
}

// Decider resolves a candidate list to a single outcome.
type Decider interface {
	Decide(ctx context.Context, cands []shared.Candidate, lt shared.LocalTrack, region string) (decide.Decision, error)
}

// Playlist is the write side of the remote playlist.
type Playlist interface {
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// TagLoader reads metadata for one file.
type TagLoader func(path string) (shared.LocalTrack, error)

// Summary is the per-outcome tally for one run.
type Summary struct {
	Added      int
	PlannedAdd int
	Duplicate  int
	NotFound   int
	Skipped    int
	Resumed    int
	Failed     int
	Aborted    bool
}

// Total is the number of files that reached a terminal outcome this run.
func (s Summary) Total() int {
	return s.Added + s.PlannedAdd + s.Duplicate + s.NotFound + s.Skipped
}

// Runner holds the collaborators and options for one import run.
type Runner struct {
	Searcher   Searcher
	Decider    Decider
	Playlist   Playlist
	LoadTags   TagLoader
	Checkpoint *checkpoint.Store
	Audit      *audit.Writer
	Cache      *match.Cache
	Log        *slog.Logger

	PlaylistID string
	Region     string
	DryRun     bool
	// Existing is the set of track URIs already on the playlist; accepted
	// matches found here become duplicates instead of adds.
	Existing map[string]bool

	// Bar is optional; nil disables progress display.
	Bar *pb.ProgressBar

	staged []string
}

// Run processes the files in order and returns the outcome tally. A user
// abort stops the run cleanly: the in-flight file is checkpointed, no
// further remote calls are made (staged URIs beyond the last flush stay
// unsent), and the error is nil.
func (r *Runner) Run(ctx context.Context, files []string) (Summary, error) {
	if r.Existing == nil {
		r.Existing = make(map[string]bool)
	}
	var sum Summary

	for _, path := range files {
		if r.Bar != nil {
			r.Bar.Increment()
		}
		if r.Checkpoint.Seen(path) {
			sum.Resumed++
			r.Log.Debug("already processed", "path", path)
			continue
		}

		aborted, err := r.processFile(ctx, path, &sum)
		if err != nil {
			// One unreadable or unsearchable file must not kill the run.
			r.Log.Error("file failed", "path", path, "error", err)
			shared.ColorError.Printf("Failed: %s (%v)\n", path, err)
			sum.Failed++
			continue
		}
		if aborted {
			sum.Aborted = true
			return sum, nil
		}
	}

	if err := r.flush(ctx); err != nil {
		return sum, err
	}
	return sum, nil
}

// processFile takes one file through search, decision and staging. The
// returned bool reports a user abort.
func (r *Runner) processFile(ctx context.Context, path string, sum *Summary) (bool, error) {
	lt, err := r.LoadTags(path)
	if err != nil {
		return false, err
	}

	cands, err := r.findCandidates(ctx, lt)
	if err != nil {
		return false, err
	}

	dec, err := r.Decider.Decide(ctx, cands, lt, r.Region)
	if err != nil {
		return false, err
	}

	switch dec.Outcome {
	case decide.Aborted:
		// Checkpoint the in-flight file so resume skips it: the top
		// candidate stands in as a partial result.
		var uri string
		var score *float64
		if len(cands) > 0 {
			uri = cands[0].URI
			s := cands[0].Score
			score = &s
		}
		r.Checkpoint.Record(path, uri, score)
		r.Checkpoint.Save()
		r.Log.Info("run aborted by user", "path", path)
		return true, nil

	case decide.Accepted:
		var status string
		if r.Existing[dec.URI] {
			status = shared.StatusDuplicate
			sum.Duplicate++
		} else {
			r.Existing[dec.URI] = true
			r.staged = append(r.staged, dec.URI)
			if r.DryRun {
				status = shared.StatusPlannedAdd
				sum.PlannedAdd++
			} else {
				status = shared.StatusAdded
				sum.Added++
			}
		}
		score := dec.Score
		var scorePtr *float64
		if score > 0 {
			scorePtr = &score
		}
		r.record(path, lt, status, scorePtr, dec.URI)
		if !r.DryRun && len(r.staged) >= flushThreshold {
			if err := r.flush(ctx); err != nil {
				return false, err
			}
		}

	default:
		status := shared.StatusNotFound
		// Skipped rows keep the best score seen so reports show how close
		// the rejected match was.
		var scorePtr *float64
		if len(cands) > 0 {
			status = shared.StatusSkipped
			sum.Skipped++
			top := cands[0].Score
			scorePtr = &top
		} else {
			sum.NotFound++
		}
		r.record(path, lt, status, scorePtr, "")
	}
	return false, nil
}

// findCandidates serves repeated tags from the cache, re-scoring against
// the current file, and fills the cache on miss.
func (r *Runner) findCandidates(ctx context.Context, lt shared.LocalTrack) ([]shared.Candidate, error) {
	if cached, ok := r.Cache.Get(lt); ok {
		r.Log.Debug("cache hit", "path", lt.Path)
		return match.Rank(lt, cached, match.InternalLimit), nil
	}
	cands, err := r.Searcher.FindCandidates(ctx, lt, r.Region, match.InternalLimit)
	if err != nil {
		return nil, err
	}
	r.Cache.Put(lt, cands)
	return cands, nil
}

func (r *Runner) record(path string, lt shared.LocalTrack, status string, score *float64, uri string) {
	r.Audit.Add(audit.Record{
		Path:       path,
		Title:      lt.Title,
		Artist:     lt.Artist,
		Album:      lt.Album,
		DurationMS: lt.DurationMS,
		Year:       lt.Year,
		ISRC:       lt.ISRC,
		Decision:   status,
		Score:      score,
		URI:        uri,
	})
	r.Checkpoint.Record(path, uri, score)
	r.Checkpoint.Save()
}

// flush sends the staged URIs to the playlist. Dry runs keep them staged.
func (r *Runner) flush(ctx context.Context) error {
	if r.DryRun || len(r.staged) == 0 {
		return nil
	}
	if err := r.Playlist.AddTracks(ctx, r.PlaylistID, r.staged); err != nil {
		return err
	}
	r.staged = nil
	return nil
}
