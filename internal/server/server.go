package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownGrace bounds how long in-flight requests get to finish.
const DefaultShutdownGrace = 10 * time.Second

// Server runs the gateway's HTTP listener until its context ends.
type Server struct {
	http   *http.Server
	grace  time.Duration
	logger *zap.Logger
}

type Option func(*Server)

func WithShutdownGrace(d time.Duration) Option {
	return func(s *Server) {
		s.grace = d
	}
}

// New builds the gateway's HTTP server. Write timeout leaves room for one
// slow upstream round trip.
func New(port int, handler http.Handler, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		grace:  DefaultShutdownGrace,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run listens on the configured port and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done, then drains in-flight requests for
// up to the shutdown grace period. A nil return means a clean stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", zap.String("addr", ln.Addr().String()))
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway stopped serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("draining gateway", zap.Duration("grace", s.grace))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("draining gateway: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway stopped serving: %w", err)
	}
	return nil
}
