package main

import (
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// sourcesCmd creates the "sources" subcommand listing the site registry.
func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered sites and whether a run visits them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			src := cfg.Sources
			enabled := func(key string) bool {
				switch key {
				case "futurism":
					return src.Futurism.Enabled
				case "theneuron":
					return src.TheNeuron.Enabled
				}
				return src.Web.Enabled && slices.Contains(src.Web.Sources, key)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Key", "Name", "Listing", "Run"})
			for _, key := range registry.Keys() {
				d, _ := registry.Get(key)
				t.AppendRow(table.Row{key, d.DisplayName, d.ListingURL, enabled(key)})
			}
			t.AppendSeparator()
			t.AppendRow(table.Row{"reddit", "Reddit", src.Reddit.Subreddits, src.Reddit.Enabled})
			t.AppendRow(table.Row{"linkedin", "LinkedIn", "feed", src.LinkedIn.Enabled})
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}
