package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Timeouts of Server in seconds, zero means no timeout.
type Timeouts struct {
	Read       int
	ReadHeader int
	Write      int
	Idle       int
}

// Server is an http.Server managed by Context: it listens on Start and shuts down on Stop.
type Server struct {
	Timeouts Timeouts

	addr    string
	handler http.Handler
	logger  *slog.Logger

	srv      *http.Server
	listener net.Listener
	served   chan error
	mu       sync.Mutex
}

func NewServer(addr string, router *Router, logger *slog.Logger) *Server {
	return &Server{addr: addr, handler: router, logger: logger}
}

// Start listens on addr and serves in background until Stop.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return fmt.Errorf("server on %s is already started", s.listener.Addr())
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = listener
	s.served = make(chan error, 1)
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       seconds(s.Timeouts.Read),
		ReadHeaderTimeout: seconds(s.Timeouts.ReadHeader),
		WriteTimeout:      seconds(s.Timeouts.Write),
		IdleTimeout:       seconds(s.Timeouts.Idle),
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	go func(srv *http.Server, served chan<- error) {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		if err != nil {
			s.logger.Error("http server failed", "addr", listener.Addr().String(), "error", err)
		}

		served <- err
	}(s.srv, s.served)

	s.logger.Info("http server listening", "addr", listener.Addr().String())

	return nil
}

// Stop waits for in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}

	err := s.srv.Shutdown(ctx)
	if err != nil {
		err = errors.Join(err, s.srv.Close())
	}

	err = errors.Join(err, <-s.served)
	s.srv = nil

	s.logger.Info("http server stopped", "addr", s.listener.Addr().String())

	return err
}

// Addr is the address Server listens on, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.addr
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
