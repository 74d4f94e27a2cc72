// Package spotify wraps the remote catalog API behind the narrow interfaces
// the matching pipeline needs, with rate limiting and throttle-aware retries
// on every call.
package spotify

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"

	"playlist-importer/internal/ratelimit"
	"playlist-importer/internal/shared"
)

// Client is the authenticated catalog session used for the whole run.
type Client struct {
	api    *spotify.Client
	caller *ratelimit.Caller
	log    *slog.Logger
}

// NewClient wraps an authenticated HTTP client. The HTTP client must carry
// the throttle-classifying transport from Authenticator.HTTPClient.
func NewClient(httpClient *http.Client, caller *ratelimit.Caller, log *slog.Logger) *Client {
	return &Client{
		api:    spotify.New(httpClient),
		caller: caller,
		log:    log,
	}
}

// SearchTracks runs one track search query, optionally restricted to a
// market region. Empty region searches the global catalog.
func (c *Client) SearchTracks(ctx context.Context, query, region string, limit int) ([]shared.Candidate, error) {
	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if region != "" {
		opts = append(opts, spotify.Market(region))
	}

	var result *spotify.SearchResult
	err := c.caller.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = c.api.Search(ctx, query, spotify.SearchTypeTrack, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result == nil || result.Tracks == nil {
		return nil, nil
	}

	cands := make([]shared.Candidate, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		cands = append(cands, toCandidate(t))
	}
	c.log.Debug("search", "query", query, "region", region, "results", len(cands))
	return cands, nil
}

func toCandidate(t spotify.FullTrack) shared.Candidate {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}
	return shared.Candidate{
		URI:         string(t.URI),
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		DurationMS:  int(t.Duration),
		ReleaseYear: releaseYear(t.Album.ReleaseDate),
		TrackNumber: int(t.TrackNumber),
	}
}

// releaseYear parses the leading year of a release date, which the API
// returns with year, month or day precision.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// trackID strips the URI prefix; the add endpoint wants bare IDs.
func trackID(uri string) spotify.ID {
	return spotify.ID(strings.TrimPrefix(uri, "spotify:track:"))
}
