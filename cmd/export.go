package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"metaviz/internal/editor"
	"metaviz/internal/format"
	"metaviz/internal/tui"
	"metaviz/internal/ui"
)

var exportFormats = []string{"svg", "png", "txt", "json", "yaml"}

func exportCmd() *cobra.Command {
	var (
		kind string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a board as an image, text drawing or snapshot",
		Long: "Export the top level of a board.\n\n" +
			"  svg, png   vector or raster image\n" +
			"  txt        the character drawing the editor shows\n" +
			"  json, yaml a snapshot of the current graph without its history",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if kind == "" {
				kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
			}
			if kind == "yml" {
				kind = "yaml"
			}
			if !validFormat(kind) {
				return fmt.Errorf("unknown export format %q (want one of %s)", kind, strings.Join(exportFormats, ", "))
			}
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + "." + kind
			}

			e, _, err := openBoard(in)
			if err != nil {
				return err
			}
			if err := export(e, kind, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Sprint("exported"), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "format", "f", "", "output format: "+strings.Join(exportFormats, ", ")+" (default from -o)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: input name with the format extension)")
	return cmd
}

func validFormat(kind string) bool {
	for _, f := range exportFormats {
		if f == kind {
			return true
		}
	}
	return false
}

func export(e *editor.Editor, kind, out string) error {
	switch kind {
	case "svg":
		return tui.ExportSVG(out, e)
	case "png":
		return tui.ExportPNG(out, e)
	case "txt":
		return tui.ExportTextFile(out, e)
	}
	// The codec follows the file extension.
	if (kind == "yaml") != (format.CodecFor(out) == format.CodecYAML) {
		return fmt.Errorf("%s snapshot cannot be written to %s", kind, out)
	}
	nodes, links := e.Records()
	return format.WriteSnapshot(out, e.Board(), nodes, links)
}
