package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	defaultShutdownTimeout = time.Second * 10
	defaultReadTimeout     = time.Second * 5
	defaultWriteTimeout    = time.Second * 5
)

type Config struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	cfg      Config
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	err      error
}

func New(cfg Config, handler http.Handler) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		done: make(chan struct{}),
	}
}

// Start binds the listen address and serves requests in the background.
// Once serving stops, Done is closed and Err reports the failure, if any.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("http server: listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = listener

	go func() {
		defer close(s.done)
		if serveErr := s.server.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			s.err = serveErr
		}
	}()

	return nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) Err() error {
	return s.err
}

func (s *Server) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("http server: shutdown %s: %w", s.cfg.ListenAddr, err)
	}
	<-s.done
	return nil
}
