package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askveeva/deepsearch/internal/search"
)

// newSearchCmd creates the one-shot search command.
func newSearchCmd(configPath, databaseURL *string) *cobra.Command {
	var (
		k        int
		role     string
		sector   string
		noRerank bool
		noDeep   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query against the corpus and print JSON results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, log, err := setup(*configPath, *databaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			q := search.Query{
				Text:   strings.Join(args, " "),
				K:      k,
				Role:   role,
				Sector: sector,
			}
			if noRerank {
				f := false
				q.Rerank = &f
			}
			if noDeep {
				f := false
				q.Deep = &f
			}

			res, err := newEngine(cfg, st, log).Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 0, "Result count (default from config)")
	cmd.Flags().StringVar(&role, "role", "", "Role bias applied to filenames")
	cmd.Flags().StringVar(&sector, "sector", "", "Sector bias applied to filenames")
	cmd.Flags().BoolVar(&noRerank, "no-rerank", false, "Skip oracle reranking")
	cmd.Flags().BoolVar(&noDeep, "no-deep", false, "Skip expansion and diversity")
	return cmd
}
