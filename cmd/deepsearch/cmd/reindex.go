package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newReindexCmd creates the reindex command.
func newReindexCmd(configPath, databaseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Build the index once and report corpus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, st, log, err := setup(*configPath, *databaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			info, err := newEngine(cfg, st, log).Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed chunks=%d spans=%d in %.3fs\n",
				info.Docs, info.Spans, info.Secs)
			return nil
		},
	}
}
