package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lutefd/log-pipeline/internal/commons"
	"github.com/Lutefd/log-pipeline/internal/handler"
	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/metrics"
)

// Server exposes health, stats and metrics for a producer or consumer
// process.
type Server struct {
	port   uint16
	router http.Handler
}

type Dependencies struct {
	Ready    handler.ReadinessFunc
	Snapshot handler.SnapshotFunc
	Metrics  *metrics.Metrics
	Alerts   handler.AlertLister
	Cache    handler.SnapshotGetter
}

func NewServer(port uint16, deps Dependencies) *Server {
	server := &Server{port: port}
	server.registerRoutes(deps)
	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Infof("Starting ops server on port %d", s.port)
	ch := make(chan error, 1)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		IdleTimeout:  commons.ServerIdleTimeout,
		ReadTimeout:  commons.ServerReadTimeout,
		WriteTimeout: commons.ServerWriteTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- fmt.Errorf("failed to start server: %w", err)
		}
		close(ch)
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), commons.ServerShutdownPeriod)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}
