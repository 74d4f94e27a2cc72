package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playlist-importer/internal/audit"
	"playlist-importer/internal/checkpoint"
	"playlist-importer/internal/decide"
	"playlist-importer/internal/logging"
	"playlist-importer/internal/match"
	"playlist-importer/internal/shared"
)

type fakeSearcher struct {
	calls int
}

func (f *fakeSearcher) FindCandidates(_ context.Context, lt shared.LocalTrack, _ string, _ int) ([]shared.Candidate, error) {
	f.calls++
	return []shared.Candidate{{
		URI:     "spotify:track:" + filepath.Base(lt.Path),
		Name:    lt.Title,
		Artists: []string{lt.Artist},
		Score:   0.95,
	}}, nil
}

// fakeDecider accepts the top candidate, optionally aborting at a given path.
type fakeDecider struct {
	abortAt string
	reject  bool
}

func (f *fakeDecider) Decide(_ context.Context, cands []shared.Candidate, lt shared.LocalTrack, _ string) (decide.Decision, error) {
	if f.abortAt != "" && lt.Path == f.abortAt {
		return decide.Decision{Outcome: decide.Aborted}, nil
	}
	if f.reject || len(cands) == 0 {
		return decide.Decision{Outcome: decide.Rejected}, nil
	}
	return decide.Decision{Outcome: decide.Accepted, URI: cands[0].URI, Score: cands[0].Score}, nil
}

type fakePlaylist struct {
	batches [][]string
}

func (f *fakePlaylist) AddTracks(_ context.Context, _ string, uris []string) error {
	batch := make([]string, len(uris))
	copy(batch, uris)
	f.batches = append(f.batches, batch)
	return nil
}

func loadFromPath(path string) (shared.LocalTrack, error) {
	base := filepath.Base(path)
	return shared.LocalTrack{Path: path, Title: "Title " + base, Artist: "Artist " + base}, nil
}

type fixture struct {
	runner   *Runner
	searcher *fakeSearcher
	playlist *fakePlaylist
	ckptPath string
	aud      *audit.Writer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	log := logging.Discard()
	aud, err := audit.NewWriter(filepath.Join(dir, "reports"), log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { aud.Close() })

	ckptPath := filepath.Join(dir, "checkpoint.json")
	searcher := &fakeSearcher{}
	playlist := &fakePlaylist{}
	return &fixture{
		aud: aud,
		runner: &Runner{
			Searcher:   searcher,
			Decider:    &fakeDecider{},
			Playlist:   playlist,
			LoadTags:   loadFromPath,
			Checkpoint: checkpoint.Load(ckptPath, "", log),
			Audit:      aud,
			Cache:      match.NewCache(),
			Log:        log,
			PlaylistID: "pl1",
			Region:     "FR",
		},
		searcher: searcher,
		playlist: playlist,
		ckptPath: ckptPath,
	}
}

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/music/%03d.mp3", i)
	}
	return out
}

func TestRunAddsAcceptedTracks(t *testing.T) {
	f := newFixture(t)
	sum, err := f.runner.Run(context.Background(), paths(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Added != 3 || sum.Total() != 3 {
		t.Errorf("summary = %+v, want 3 added", sum)
	}
	if len(f.playlist.batches) != 1 || len(f.playlist.batches[0]) != 3 {
		t.Errorf("batches = %v, want one batch of 3", f.playlist.batches)
	}
}

func TestRunSecondPassResumesWithoutSearching(t *testing.T) {
	f := newFixture(t)
	files := paths(5)
	if _, err := f.runner.Run(context.Background(), files); err != nil {
		t.Fatal(err)
	}
	firstCalls := f.searcher.calls

	// Fresh runner over the persisted checkpoint.
	second := newFixture(t)
	second.runner.Checkpoint = checkpoint.Load(f.ckptPath, "", logging.Discard())
	sum, err := second.runner.Run(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if second.searcher.calls != 0 {
		t.Errorf("second run searched %d times, want 0", second.searcher.calls)
	}
	if sum.Resumed != 5 || sum.Total() != 0 {
		t.Errorf("second run summary = %+v, want 5 resumed", sum)
	}
	if firstCalls != 5 {
		t.Errorf("first run searched %d times, want 5", firstCalls)
	}
}

func TestRunFlushesInBatches(t *testing.T) {
	f := newFixture(t)
	sum, err := f.runner.Run(context.Background(), paths(250))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Added != 250 {
		t.Fatalf("added = %d, want 250", sum.Added)
	}
	var sizes []int
	for _, b := range f.playlist.batches {
		sizes = append(sizes, len(b))
	}
	want := []int{100, 100, 50}
	if len(sizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("batch %d size = %d, want %d", i, sizes[i], want[i])
		}
	}
}

func TestRunAbortStopsAndCheckpointsInFlightFile(t *testing.T) {
	f := newFixture(t)
	files := paths(10)
	f.runner.Decider = &fakeDecider{abortAt: files[4]}

	sum, err := f.runner.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("abort must not be an error: %v", err)
	}
	if !sum.Aborted {
		t.Error("summary should report the abort")
	}
	if sum.Added != 4 {
		t.Errorf("added = %d, want 4 before the abort", sum.Added)
	}
	// No remote calls after the abort: the staged batch stays unsent.
	if len(f.playlist.batches) != 0 {
		t.Errorf("batches = %v, want none sent after abort", f.playlist.batches)
	}
	// The in-flight file is checkpointed so resume skips it.
	ckpt := checkpoint.Load(f.ckptPath, "", logging.Discard())
	if !ckpt.Seen(files[4]) {
		t.Error("aborted file missing from checkpoint")
	}
	if ckpt.Seen(files[5]) {
		t.Error("unprocessed file present in checkpoint")
	}
}

func TestRunAbortKeepsEarlierFlushes(t *testing.T) {
	f := newFixture(t)
	files := paths(250)
	f.runner.Decider = &fakeDecider{abortAt: files[150]}

	sum, err := f.runner.Run(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Aborted || sum.Added != 150 {
		t.Errorf("summary = %+v, want abort after 150 added", sum)
	}
	// The batch flushed at the threshold stands; the 50 staged after it
	// are dropped by the abort.
	if len(f.playlist.batches) != 1 || len(f.playlist.batches[0]) != 100 {
		t.Errorf("batches = %v, want only the pre-abort flush of 100", f.playlist.batches)
	}
}

func TestRunDryRunSendsNothing(t *testing.T) {
	f := newFixture(t)
	f.runner.DryRun = true

	sum, err := f.runner.Run(context.Background(), paths(3))
	if err != nil {
		t.Fatal(err)
	}
	if sum.PlannedAdd != 3 || sum.Added != 0 {
		t.Errorf("summary = %+v, want 3 planned and 0 added", sum)
	}
	if len(f.playlist.batches) != 0 {
		t.Errorf("dry run sent %d batches", len(f.playlist.batches))
	}
}

func TestRunDetectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.runner.Existing = map[string]bool{"spotify:track:001.mp3": true}

	sum, err := f.runner.Run(context.Background(), paths(3))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Duplicate != 1 || sum.Added != 2 {
		t.Errorf("summary = %+v, want 1 duplicate and 2 added", sum)
	}
}

func TestRunSameTrackAcceptedTwiceIsDuplicate(t *testing.T) {
	f := newFixture(t)
	// Two distinct paths with the same base name resolve to the same URI.
	files := []string{"/a/song.mp3", "/b/song.mp3"}

	sum, err := f.runner.Run(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Added != 1 || sum.Duplicate != 1 {
		t.Errorf("summary = %+v, want 1 added and 1 duplicate", sum)
	}
}

func TestRunRejectedOutcomes(t *testing.T) {
	f := newFixture(t)
	f.runner.Decider = &fakeDecider{reject: true}

	sum, err := f.runner.Run(context.Background(), paths(2))
	if err != nil {
		t.Fatal(err)
	}
	// Candidates existed, so rejections are skips rather than not-found.
	if sum.Skipped != 2 || sum.NotFound != 0 {
		t.Errorf("summary = %+v, want 2 skipped", sum)
	}
}

func TestRunSkippedRowsCarryTopScore(t *testing.T) {
	f := newFixture(t)
	f.runner.Decider = &fakeDecider{reject: true}

	if _, err := f.runner.Run(context.Background(), paths(1)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(f.aud.NDJSONPath())
	if err != nil {
		t.Fatal(err)
	}
	var rec audit.Record
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec); err != nil {
		t.Fatalf("audit record does not parse: %v", err)
	}
	if rec.Decision != shared.StatusSkipped {
		t.Fatalf("decision = %q, want %q", rec.Decision, shared.StatusSkipped)
	}
	if rec.Score == nil || *rec.Score != 0.95 {
		t.Errorf("skipped row score = %v, want the top candidate's 0.95", rec.Score)
	}
}

func TestRunUnreadableFileDoesNotStopRun(t *testing.T) {
	f := newFixture(t)
	f.runner.LoadTags = func(path string) (shared.LocalTrack, error) {
		if filepath.Base(path) == "001.mp3" {
			return shared.LocalTrack{}, fmt.Errorf("corrupt file")
		}
		return loadFromPath(path)
	}

	sum, err := f.runner.Run(context.Background(), paths(3))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 1 || sum.Added != 2 {
		t.Errorf("summary = %+v, want 1 failed and 2 added", sum)
	}
}

func TestRunCacheSkipsRepeatSearches(t *testing.T) {
	f := newFixture(t)
	// Same tags for every path: one remote search, then cache hits.
	f.runner.LoadTags = func(path string) (shared.LocalTrack, error) {
		return shared.LocalTrack{Path: path, Title: "Song A", Artist: "Artist B"}, nil
	}

	if _, err := f.runner.Run(context.Background(), paths(4)); err != nil {
		t.Fatal(err)
	}
	if f.searcher.calls != 1 {
		t.Errorf("searcher called %d times, want 1 (cache serves the rest)", f.searcher.calls)
	}
}
