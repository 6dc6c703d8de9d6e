// Package cmd provides the CLI commands for deepsearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/askveeva/deepsearch/internal/config"
	"github.com/askveeva/deepsearch/internal/logging"
	"github.com/askveeva/deepsearch/internal/search"
	"github.com/askveeva/deepsearch/internal/store"
	"github.com/askveeva/deepsearch/pkg/version"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "deepsearch",
		Short: "Hybrid document retrieval engine for procedure corpora",
		Long: `Deepsearch serves hybrid retrieval (BM25 + TF-IDF n-grams + domain
boosts) over a chunked document corpus, with oracle reranking, two-stage
diversity and span-based evidence.

Run 'deepsearch serve' to expose the HTTP API.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("deepsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Corpus store DSN (overrides config and env)")

	cmd.AddCommand(
		newServeCmd(&configPath, &databaseURL),
		newReindexCmd(&configPath, &databaseURL),
		newSearchCmd(&configPath, &databaseURL),
		newConfigCmd(&configPath),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// setup loads configuration, installs logging and opens the corpus store.
func setup(configPath, databaseURL string) (*config.Config, *store.Store, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	log := logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if !st.Configured() {
		log.Warn("no corpus store configured, serving empty results until one is set")
	}
	return cfg, st, log, nil
}

// newEngine wires the retrieval engine, with the oracle when configured.
func newEngine(cfg *config.Config, st *store.Store, log *slog.Logger) *search.Engine {
	var oracle search.Oracle
	if cfg.Rerank.Enabled && cfg.Rerank.URL != "" {
		oracle = search.NewHTTPOracle(cfg.Rerank.URL, cfg.Rerank.Model)
		log.Info("oracle configured", "url", cfg.Rerank.URL, "model", cfg.Rerank.Model)
	}
	return search.New(cfg, st, oracle, log)
}
