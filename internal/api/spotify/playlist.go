package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"playlist-importer/internal/shared"
)

// addBatchSize is the remote endpoint's per-call URI limit.
const addBatchSize = 100

// CurrentUser returns the authenticated user's ID and display name.
func (c *Client) CurrentUser(ctx context.Context) (id, name string, err error) {
	var user *spotify.PrivateUser
	err = c.caller.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = c.api.CurrentUser(ctx)
		return err
	})
	if err != nil {
		return "", "", fmt.Errorf("fetching current user: %w", err)
	}
	return user.ID, user.DisplayName, nil
}

// CreatePlaylist makes a new playlist owned by the user.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string, public, collaborative bool) (shared.PlaylistInfo, error) {
	var pl *spotify.FullPlaylist
	err := c.caller.Do(ctx, func(ctx context.Context) error {
		var err error
		pl, err = c.api.CreatePlaylistForUser(ctx, userID, name, description, public, collaborative)
		return err
	})
	if err != nil {
		return shared.PlaylistInfo{}, fmt.Errorf("creating playlist %q: %w", name, err)
	}
	c.log.Info("playlist created", "id", pl.ID, "name", pl.Name)
	return shared.PlaylistInfo{
		ID:            string(pl.ID),
		Name:          pl.Name,
		OwnerID:       pl.Owner.ID,
		OwnerName:     pl.Owner.DisplayName,
		Public:        public,
		Collaborative: pl.Collaborative,
	}, nil
}

// ListPlaylists returns every playlist on the user's account, following
// pagination to the end.
func (c *Client) ListPlaylists(ctx context.Context) ([]shared.PlaylistInfo, error) {
	var page *spotify.SimplePlaylistPage
	err := c.caller.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = c.api.CurrentUsersPlaylists(ctx, spotify.Limit(50))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	var playlists []shared.PlaylistInfo
	for {
		for _, pl := range page.Playlists {
			playlists = append(playlists, shared.PlaylistInfo{
				ID:            string(pl.ID),
				Name:          pl.Name,
				OwnerID:       pl.Owner.ID,
				OwnerName:     pl.Owner.DisplayName,
				Public:        pl.IsPublic,
				Collaborative: pl.Collaborative,
				TracksTotal:   int(pl.Tracks.Total),
			})
		}
		err := c.caller.Do(ctx, func(ctx context.Context) error {
			return c.api.NextPage(ctx, page)
		})
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing playlists: %w", err)
		}
	}
	return playlists, nil
}

// PlaylistTrackURIs returns the URIs of every track already on the
// playlist, following pagination. Local files and episodes are skipped.
func (c *Client) PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error) {
	var page *spotify.PlaylistItemPage
	err := c.caller.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(50))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s items: %w", playlistID, err)
	}

	var uris []string
	for {
		for _, item := range page.Items {
			if item.IsLocal || item.Track.Track == nil {
				continue
			}
			uris = append(uris, string(item.Track.Track.URI))
		}
		err := c.caller.Do(ctx, func(ctx context.Context) error {
			return c.api.NextPage(ctx, page)
		})
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching playlist %s items: %w", playlistID, err)
		}
	}
	return uris, nil
}

// AddTracks appends the URIs to the playlist in order, batching to the
// endpoint's limit.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	batches, err := shared.Chunked(uris, addBatchSize)
	if err != nil {
		return err
	}
	for _, batch := range batches {
		ids := make([]spotify.ID, len(batch))
		for i, uri := range batch {
			ids[i] = trackID(uri)
		}
		err := c.caller.Do(ctx, func(ctx context.Context) error {
			_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...)
			return err
		})
		if err != nil {
			return fmt.Errorf("adding %d tracks to playlist %s: %w", len(batch), playlistID, err)
		}
		c.log.Info("tracks added", "playlist", playlistID, "count", len(batch))
	}
	return nil
}

// EnsureWritable verifies the user can add tracks to the playlist: they
// must own it or it must be collaborative. Checked once before processing
// so a long run cannot fail at the first add.
func EnsureWritable(pl shared.PlaylistInfo, userID string) error {
	if pl.OwnerID == userID || pl.Collaborative {
		return nil
	}
	return fmt.Errorf("playlist %q is owned by %s and is not collaborative", pl.Name, pl.OwnerID)
}
