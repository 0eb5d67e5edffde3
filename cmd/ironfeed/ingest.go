package main

import (
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one news ingestion pass and print the summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		return a.runIngest(cmd.Context(), a.cfg.SourcesFile, a.cfg.NewsIndex)
	},
}

var ingestShowsCmd = &cobra.Command{
	Use:   "ingest-shows",
	Short: "Run one contest-schedule ingestion pass and print the summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		return a.runIngest(cmd.Context(), a.cfg.ShowSourcesFile, a.cfg.ShowsIndex)
	},
}
