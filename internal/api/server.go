// Package api serves the session manager over HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/parley/internal/session"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Manager *session.Manager
	Port    int
	Out     io.Writer
	Logger  *slog.Logger
	Stream  *Broadcaster // optional; enables /api/v1/events

	heartbeat time.Duration
}

type server struct {
	mgr       *session.Manager
	log       *slog.Logger
	stream    *Broadcaster
	heartbeat time.Duration
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Manager == nil {
		return nil, fmt.Errorf("api: manager is required")
	}
	s := &server{
		mgr:       opts.Manager,
		log:       opts.Logger,
		stream:    opts.Stream,
		heartbeat: opts.heartbeat,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.heartbeat <= 0 {
		s.heartbeat = 15 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.registerRoutes(router)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Parley API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
