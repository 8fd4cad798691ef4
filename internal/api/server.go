package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/genricoloni/synremote/internal/domain"
	"go.uber.org/zap"
)

// Server serves the control API on the configured address
type Server struct {
	logger *zap.Logger
	addr   string
	srv    *http.Server
	done   chan struct{}
}

// NewServer creates a server for ctrl; it does not listen until Start
func NewServer(logger *zap.Logger, cfg domain.Config, ctrl Controller) *Server {
	return &Server{
		logger: logger,
		addr:   cfg.APIListen(),
		srv: &http.Server{
			Handler:           NewRouter(logger, ctrl),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()

	s.logger.Info("API server listening", zap.String("addr", s.addr))
	return nil
}

// Addr returns the listen address, resolved once the server has started
func (s *Server) Addr() string {
	return s.addr
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.done == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	<-s.done
	s.logger.Info("API server stopped")
	return nil
}
