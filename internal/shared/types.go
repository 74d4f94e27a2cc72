package shared

// Music data structures

// LocalTrack is the best-effort metadata read from a local audio file.
// Zero values mean "unknown": tag readers and filename inference fill in
// whatever they can and the matcher degrades gracefully.
type LocalTrack struct {
	Path        string
	Title       string
	Artist      string
	Album       string
	DurationMS  int
	Year        int
	ISRC        string
	TrackNumber int
}

// Candidate is a remote catalog track considered as a match for a local file.
// Score is relative to one LocalTrack only: a cached candidate list must be
// re-scored before it is reused for a different file.
type Candidate struct {
	URI         string
	Name        string
	Artists     []string
	Album       string
	DurationMS  int
	Score       float64
	ReleaseYear int
	TrackNumber int
}

// PlaylistInfo describes a destination playlist.
type PlaylistInfo struct {
	ID            string
	Name          string
	OwnerID       string
	OwnerName     string
	Public        bool
	Collaborative bool
	TracksTotal   int
}

// Per-file import statuses, written to the audit log.
const (
	StatusAdded      = "ADDED"
	StatusPlannedAdd = "PLANNED_ADD" // dry-run accepted
	StatusDuplicate  = "DUPLICATE"
	StatusNotFound   = "NOT_FOUND"
	StatusSkipped    = "SKIPPED"
)

// Statuses returns every import status, in display order.
func Statuses() []string {
	return []string{StatusAdded, StatusPlannedAdd, StatusDuplicate, StatusNotFound, StatusSkipped}
}
