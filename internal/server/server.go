// Package server exposes a rewrite session over HTTP with a minimal web UI.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/diogo/msgcoach/internal/config"
	"github.com/diogo/msgcoach/internal/session"
)

//go:embed web/index.html
var indexHTML []byte

const shutdownTimeout = 10 * time.Second

// Server serves one shared session. Rewrites are serialized by the session.
type Server struct {
	session *session.Session
	cfg     config.ServerConfig
	logger  *zap.Logger
	apiKey  bool
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger used for access and error logs
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAPIKeyConfigured reports on /api/health whether a Gemini key is present
func WithAPIKeyConfigured(ok bool) Option {
	return func(s *Server) {
		s.apiKey = ok
	}
}

// New creates a server for sess
func New(sess *session.Session, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		session: sess,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler wires the routes with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/rewrite", s.handleRewrite)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	mux.HandleFunc("GET /api/history/export", s.handleExport)
	mux.HandleFunc("GET /api/history/{ref}", s.handleHistoryEntry)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/tones", s.handleTones)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("GET /api/settings", s.handleSettings)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	timeout := time.Duration(s.cfg.RequestTimeoutSeconds) * time.Second
	return Chain(mux, s.logger, s.cfg.MaxBodyBytes, timeout)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("web ui listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
