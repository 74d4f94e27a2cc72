package decide

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"playlist-importer/internal/shared"
)

// printLocalTrack shows the file being arbitrated so the user has context.
func (e *Engine) printLocalTrack(lt shared.LocalTrack) {
	fmt.Fprintf(e.out, "\nProcessing: %s\n", lt.Path)
	tw := table.NewWriter()
	tw.SetOutputMirror(e.out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendRows([]table.Row{
		{"Title", lt.Title},
		{"Artist", lt.Artist},
		{"Album", lt.Album},
		{"Length", shared.FormatDuration(lt.DurationMS)},
	})
	if lt.ISRC != "" {
		tw.AppendRow(table.Row{"ISRC", lt.ISRC})
	}
	tw.Render()
}

// printCandidates renders the top candidates as a numbered table.
func (e *Engine) printCandidates(cands []shared.Candidate) {
	if len(cands) == 0 {
		fmt.Fprintln(e.out, "No candidates.")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(e.out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title — Artist", "Album", "Length", "Score", "URI"})
	for i, c := range cands[:e.shown(cands)] {
		tw.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%q — %s", c.Name, strings.Join(c.Artists, ", ")),
			shared.TruncateString(c.Album, 40),
			shared.FormatDuration(c.DurationMS),
			fmt.Sprintf("%.2f", c.Score),
			c.URI,
		})
	}
	tw.Render()
}
