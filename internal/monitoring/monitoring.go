// Package monitoring exposes the Stats Aggregator's Prometheus gauges
// over HTTP, grounded on the teacher's pkg/monitoring/monitoring.go
// (promhttp.Handler wired into a RunnableService), simplified to a bare
// net/http.Server instead of the teacher's pprof-aware httpx wrapper —
// the debug/pprof surface has no counterpart in this core.
package monitoring

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selkies-project/selkies/internal/logger"
)

// Server serves /metrics for Prometheus scraping. It implements
// lifecycle.Runnable so the Session Orchestrator can own its start/stop
// alongside the rest of the component group.
type Server struct {
	log  *logger.Logger
	addr string
	srv  *http.Server
}

func New(log *logger.Logger, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &Server{
		log:  log,
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

func (s *Server) Run() {
	s.log.Info().Str("addr", s.addr).Msg("starting metrics server")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("stopping metrics server")
	return s.srv.Shutdown(ctx)
}

func (s *Server) String() string { return "monitoring::" + s.addr }
