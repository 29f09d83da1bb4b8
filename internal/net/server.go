package net

import (
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"
)

// ConnHandler owns a session from accept until it returns.
type ConnHandler func(sess *Session)

// Server accepts TCP connections and runs a ConnHandler per connection on
// its own goroutine.
type Server struct {
	listener net.Listener
	handler  ConnHandler
	cfg      SessionConfig
	maxFrame int
	log      *zap.Logger
	closeCh  chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func NewServer(bindAddr string, cfg SessionConfig, maxFrame int, handler ConnHandler, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		handler:  handler,
		cfg:      cfg,
		maxFrame: maxFrame,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		sess := NewSession(NewTCPConn(conn, s.maxFrame), NextSessionID(), s.cfg, s.log)
		s.log.Debug("tcp connection accepted", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler(sess)
		}()
	}
}

// Shutdown stops accepting new connections. Running handlers are not
// interrupted; close their sessions and then call Wait.
func (s *Server) Shutdown() {
	s.once.Do(func() {
		close(s.closeCh)
		s.listener.Close()
	})
}

// Wait blocks until every handler started by AcceptLoop has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
