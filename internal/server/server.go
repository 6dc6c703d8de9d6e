// Package server exposes the retrieval engine over HTTP: GET /health,
// POST /reindex, POST /search and POST /compare.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/askveeva/deepsearch/internal/config"
	"github.com/askveeva/deepsearch/internal/search"
)

// Result-count bounds enforced at the transport edge.
const (
	kMin = 10
	kMax = 200
)

// Server serves the engine API.
type Server struct {
	cfg    *config.Config
	engine *search.Engine
	log    *slog.Logger
	http   *http.Server
}

// New wires the server. The engine must already be constructed; index
// building is the caller's business (or the first request's).
func New(cfg *config.Config, engine *search.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{cfg: cfg, engine: engine, log: log}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /reindex", s.handleReindex)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /compare", s.handleCompare)
	return corsMiddleware(logMiddleware(s.log, mux))
}

// ListenAndServe blocks until the context is cancelled, then drains with a
// short grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.http.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// clampK bounds the requested result count.
func clampK(k int) int {
	if k < kMin {
		return kMin
	}
	if k > kMax {
		return kMax
	}
	return k
}
