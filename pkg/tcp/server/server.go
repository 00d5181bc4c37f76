package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultConnTimeout = time.Second
)

type Option func(*Server) error
type HandlerFunc func(context.Context, *net.TCPConn)

type Server struct {
	handler     HandlerFunc
	connTimeout time.Duration

	listener *net.TCPListener
	ctx      context.Context
	cancel   context.CancelFunc
	accepted atomic.Int64
	conns    sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return fmt.Errorf("invalid connection timeout %s", timeout)
		}
		s.connTimeout = timeout
		return nil
	}
}

func New(handler HandlerFunc, opts ...Option) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	server := &Server{
		handler:     handler,
		connTimeout: defaultConnTimeout,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		if optErr := opt(server); optErr != nil {
			cancel()
			return nil, optErr
		}
	}
	return server, nil
}

// Start binds addr and accepts connections in the background until Stop is called.
// Every connection is served by the handler in its own goroutine
// and is closed once the handler returns.
func (s *Server) Start(addr string) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}
	listener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return err
	}
	s.listener = listener
	log.Debug().Stringer("addr", listener.Addr()).Msg("TCP server launched")

	go s.accept()

	return nil
}

func (s *Server) accept() {
	defer close(s.done)
	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Warn().Err(err).Stringer("addr", s.listener.Addr()).Msg("TCP server failed unexpectedly")
			}
			return
		}
		s.accepted.Add(1)
		s.conns.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn *net.TCPConn) {
	defer s.conns.Done()
	defer conn.Close() // nolint: errcheck
	if s.handler == nil {
		return
	}
	if err := conn.SetDeadline(time.Now().Add(s.connTimeout)); err != nil {
		log.Error().Err(err).Stringer("addr", s.listener.Addr()).Msg("Failed to set deadline on TCP socket")
		return
	}
	s.handler(s.ctx, conn)
}

func (s *Server) LocalAddr() *net.TCPAddr {
	return s.listener.Addr().(*net.TCPAddr) // nolint: forcetypeassert
}

// Accepted reports the number of connections accepted so far
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Stop closes the listener, cancels the handlers' context
// and waits for the connections in flight to be served.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.cancel()
		if s.listener == nil {
			return
		}
		if closeErr := s.listener.Close(); closeErr != nil {
			err = fmt.Errorf("failed to stop TCP server %s due to: %w", s.listener.Addr(), closeErr)
			return
		}
		<-s.done
		s.conns.Wait()
	})
	return err
}
