// Package health serves liveness, readiness, and Prometheus metrics
// over HTTP.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server is the health check HTTP server.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	ready           atomic.Bool
	server          *http.Server
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, shutdownTimeout time.Duration) *Server {
	return &Server{
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
	}
}

// SetReady flips the readiness state reported by /ready.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start begins serving in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Ready check endpoint, 503 until every service is up
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !s.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"starting"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) run(ctx context.Context) {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.handler(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting health check server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health check server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Health check server error")
	}
}
