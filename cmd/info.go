package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"metaviz/internal/format"
	"metaviz/internal/ui"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show what a board file contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := format.ReadFile(args[0])
			if err != nil {
				return err
			}
			e, _, err := openBoard(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			store := e.Store()

			ui.Banner(w, "board info")
			name := e.Board().Name
			if name == "" {
				name = ui.Subtle.Sprint("(untitled)")
			}
			ui.Field(w, "Name", name)
			ui.Field(w, "ID", e.Board().ID)
			ui.Field(w, "Format", doc.Format)
			ui.Field(w, "Nodes", store.NodeCount())
			ui.Field(w, "Links", store.LinkCount())
			if doc.IsStack() {
				ui.Field(w, "History", fmt.Sprintf("%d edits", e.History().Len()))
			}
			if msgs := e.Messages(); len(msgs) > 0 {
				ui.Field(w, "Messages", len(msgs))
			}
			fmt.Fprintln(w)

			counts := make(map[string]int)
			for _, n := range store.Nodes() {
				counts[n.Type]++
			}
			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, t)
			}
			sort.Strings(types)
			var rows [][]string
			for _, t := range types {
				name := ui.Warn.Sprint("unknown")
				if nt, ok := store.Registry().Lookup(t); ok {
					name = nt.DisplayName
				}
				rows = append(rows, []string{t, name, strconv.Itoa(counts[t])})
			}
			ui.Table(w, []string{"TYPE", "NAME", "COUNT"}, rows)
			return nil
		},
	}
}
