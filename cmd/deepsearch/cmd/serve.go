package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askveeva/deepsearch/internal/server"
)

// newServeCmd creates the serve command.
func newServeCmd(configPath, databaseURL *string) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the retrieval HTTP API",
		Long: `Start the HTTP server: GET /health, POST /reindex, POST /search,
POST /compare. The index is built at startup unless auto_index is off;
a failed startup build is retried on the first request.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, st, log, err := setup(*configPath, *databaseURL)
			if err != nil {
				return err
			}
			defer st.Close()
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine := newEngine(cfg, st, log)
			if cfg.AutoIndex {
				if info, err := engine.Reindex(ctx); err != nil {
					log.Warn("startup index build failed, deferring to first request", "error", err)
				} else {
					log.Info("startup index built", "docs", info.Docs, "spans", info.Spans, "secs", info.Secs)
				}
			}

			return server.New(cfg, engine, log).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}
