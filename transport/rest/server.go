package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the ops endpoints of the client: a liveness ping and Prometheus metrics.
type Server struct {
	logger  *slog.Logger
	handler http.Handler
}

func New(logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	router := chi.NewRouter()
	router.Get("/ping", pingHandler)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		logger:  logger.With("component", "rest"),
		handler: router,
	}
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start serves on port until ctx is done, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	return that.Serve(ctx, listener)
}

func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	srv := &http.Server{
		Handler:      that.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	log.Info("HTTP server started")

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("HTTP server stopped")

	return nil
}
