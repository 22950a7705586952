package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"metaviz/internal/config"
	"metaviz/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			ui.Banner(w, "config")
			ui.Field(w, "File", activeConfigPath())
			ui.Field(w, "Saves", orNone(cfg.Editor.SaveDirectory))
			ui.Field(w, "Author", orNone(cfg.Editor.Author))
			ui.Field(w, "Pointer", cfg.Pointer.Primary)
			grid := "off"
			if cfg.Grid.Enabled {
				grid = fmt.Sprintf("%g px", cfg.Grid.Width)
			}
			ui.Field(w, "Grid", grid)
			ui.Field(w, "Zoom", fmt.Sprintf("%g..%g x%g", cfg.Zoom.Min, cfg.Zoom.Max, cfg.Zoom.Step))
			ui.Field(w, "Log", cfg.Log.Level+" "+orNone(cfg.Log.File))
			if len(cfg.Keys) > 0 {
				fmt.Fprintln(w)
				var rows [][]string
				for key, c := range cfg.Keys {
					rows = append(rows, []string{key, c})
				}
				sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
				ui.Table(w, []string{"KEY", "COMMAND"}, rows)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := activeConfigPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.SaveFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Sprint("wrote"), path)
			return nil
		},
	})
	return cmd
}

func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.Path()
}

func orNone(s string) string {
	if s == "" {
		return ui.Subtle.Sprint("-")
	}
	return s
}
