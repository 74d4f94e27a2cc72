package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	spotifyapi "playlist-importer/internal/api/spotify"
	"playlist-importer/internal/shared"
)

const playlistsPerPage = 10

// selectPlaylist resolves the import target: the --playlist-id flag when
// given, otherwise an interactive create-or-pick menu.
func selectPlaylist(ctx context.Context, cmd *cobra.Command, client *spotifyapi.Client, userID string) (shared.PlaylistInfo, error) {
	if id, _ := cmd.Flags().GetString("playlist-id"); id != "" {
		return findPlaylistByID(ctx, client, id)
	}

	for {
		choice := shared.GetUserInput("Target playlist: [c]reate new, [p]ick existing, [q]uit", "p")
		switch strings.ToLower(choice) {
		case "c", "create":
			return createPlaylistInteractive(ctx, client, userID)
		case "p", "pick":
			pl, ok, err := pickPlaylist(ctx, client)
			if err != nil {
				return shared.PlaylistInfo{}, err
			}
			if ok {
				return pl, nil
			}
		case "q", "quit":
			return shared.PlaylistInfo{}, fmt.Errorf("no playlist selected")
		default:
			shared.ColorWarning.Println("Enter c, p or q.")
		}
	}
}

func findPlaylistByID(ctx context.Context, client *spotifyapi.Client, id string) (shared.PlaylistInfo, error) {
	playlists, err := client.ListPlaylists(ctx)
	if err != nil {
		return shared.PlaylistInfo{}, err
	}
	for _, pl := range playlists {
		if pl.ID == id {
			return pl, nil
		}
	}
	return shared.PlaylistInfo{}, fmt.Errorf("playlist %s not found on your account", id)
}

func createPlaylistInteractive(ctx context.Context, client *spotifyapi.Client, userID string) (shared.PlaylistInfo, error) {
	name := shared.GetUserInput("Playlist name", "")
	if name == "" {
		return shared.PlaylistInfo{}, fmt.Errorf("playlist name is required")
	}
	description := shared.GetUserInput("Description (optional)", "")
	visibility := shared.GetUserInput("Visibility: [p]rivate, p[u]blic, [c]ollaborative", "p")

	var public, collaborative bool
	switch strings.ToLower(visibility) {
	case "u", "public":
		public = true
	case "c", "collab", "collaborative":
		collaborative = true
	}

	pl, err := client.CreatePlaylist(ctx, userID, name, description, public, collaborative)
	if err != nil {
		return shared.PlaylistInfo{}, err
	}
	shared.ColorSuccess.Printf("Created playlist %q (%s)\n", pl.Name, pl.ID)
	return pl, nil
}

// pickPlaylist pages through the account's playlists, with a /text name
// filter. The bool is false when the user backs out to the main menu.
func pickPlaylist(ctx context.Context, client *spotifyapi.Client) (shared.PlaylistInfo, bool, error) {
	all, err := client.ListPlaylists(ctx)
	if err != nil {
		return shared.PlaylistInfo{}, false, err
	}
	if len(all) == 0 {
		shared.ColorWarning.Println("No playlists on this account yet.")
		return shared.PlaylistInfo{}, false, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	shown := all
	page := 0
	for {
		pages := (len(shown) + playlistsPerPage - 1) / playlistsPerPage
		if pages == 0 {
			shared.ColorWarning.Println("No playlists match the filter.")
			shown = all
			continue
		}
		if page >= pages {
			page = pages - 1
		}
		start := page * playlistsPerPage
		end := start + playlistsPerPage
		if end > len(shown) {
			end = len(shown)
		}
		printPlaylistPage(shown[start:end], start, page+1, pages)

		shared.ColorPrompt.Printf("[%d-%d] select, [n]ext, [p]rev, [/text] filter, [b]ack > ", start+1, end)
		choice, err := shared.ReadLine(scanner)
		if err != nil {
			return shared.PlaylistInfo{}, false, nil
		}
		lc := strings.ToLower(choice)
		switch {
		case lc == "n" || lc == "next" || lc == "":
			if page < pages-1 {
				page++
			}
		case lc == "p" || lc == "prev":
			if page > 0 {
				page--
			}
		case lc == "b" || lc == "back":
			return shared.PlaylistInfo{}, false, nil
		case strings.HasPrefix(choice, "/"):
			shown = filterPlaylists(all, strings.TrimPrefix(choice, "/"))
			page = 0
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(shown) {
				shared.ColorWarning.Println("Invalid input, try again.")
				continue
			}
			pl := shown[idx-1]
			confirm := shared.GetUserInput(fmt.Sprintf("Import into %q (%d tracks)? [y/N]", pl.Name, pl.TracksTotal), "n")
			if strings.EqualFold(confirm, "y") || strings.EqualFold(confirm, "yes") {
				return pl, true, nil
			}
		}
	}
}

func filterPlaylists(playlists []shared.PlaylistInfo, query string) []shared.PlaylistInfo {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return playlists
	}
	var out []shared.PlaylistInfo
	for _, pl := range playlists {
		if strings.Contains(strings.ToLower(pl.Name), query) {
			out = append(out, pl)
		}
	}
	return out
}

func printPlaylistPage(playlists []shared.PlaylistInfo, offset, page, pages int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Name", "Owner", "Tracks", "Access"})
	for i, pl := range playlists {
		tw.AppendRow(table.Row{
			offset + i + 1,
			shared.TruncateString(pl.Name, 40),
			pl.OwnerName,
			pl.TracksTotal,
			playlistAccess(pl),
		})
	}
	tw.Render()
	fmt.Printf("Page %d/%d\n", page, pages)
}

func playlistAccess(pl shared.PlaylistInfo) string {
	switch {
	case pl.Collaborative:
		return "collaborative"
	case pl.Public:
		return "public"
	default:
		return "private"
	}
}
