package net

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanewars/server/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrSendFailed = errors.New("send failed")

var sessionIDs atomic.Uint64

// NextSessionID allocates an ID shared by every transport.
func NextSessionID() uint64 {
	return sessionIDs.Add(1)
}

type SessionConfig struct {
	OutQueueSize int
	WriteTimeout time.Duration
	// CommandsPerSecond caps inbound commands; 0 disables the limit.
	CommandsPerSecond float64
	CommandBurst      int
}

// Session represents a single client connection. The owner goroutine reads
// with Receive; outbound payloads go through OutQueue to the writer goroutine.
type Session struct {
	ID   uint64
	conn Conn

	state atomic.Int32 // packet.SessionState stored as int32

	OutQueue chan []byte

	IP string

	writeTimeout time.Duration
	limiter      *rate.Limiter

	closeCh    chan struct{}
	closeOnce  sync.Once
	closed     atomic.Bool
	sendFailed atomic.Bool
	startOnce  sync.Once

	log *zap.Logger
}

func NewSession(conn Conn, id uint64, cfg SessionConfig, log *zap.Logger) *Session {
	if cfg.OutQueueSize <= 0 {
		cfg.OutQueueSize = 64
	}
	s := &Session{
		ID:           id,
		conn:         conn,
		OutQueue:     make(chan []byte, cfg.OutQueueSize),
		IP:           conn.RemoteAddr(),
		writeTimeout: cfg.WriteTimeout,
		closeCh:      make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
	if cfg.CommandsPerSecond > 0 {
		burst := cfg.CommandBurst
		if burst <= 0 {
			burst = int(cfg.CommandsPerSecond) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.CommandsPerSecond), burst)
	}
	s.state.Store(int32(packet.StateConnecting))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

func (s *Session) Log() *zap.Logger { return s.log }

// WriteDirect writes one payload synchronously. It is used for INIT, before
// the writer goroutine exists, so INIT always precedes any STATE.
func (s *Session) WriteDirect(data []byte) error {
	if s.closed.Load() {
		return ErrSendFailed
	}
	if err := s.write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Start launches the writer goroutine.
func (s *Session) Start() {
	s.startOnce.Do(func() { go s.writeLoop() })
}

// Send queues a payload for the writer without blocking. It fails when the
// queue is full, the writer has hit a transport error, or the session is
// closed. A failed Send does not close the session.
func (s *Session) Send(data []byte) error {
	if s.closed.Load() || s.sendFailed.Load() {
		return ErrSendFailed
	}
	select {
	case s.OutQueue <- data:
		return nil
	default:
		return fmt.Errorf("%w: output queue full", ErrSendFailed)
	}
}

// Receive blocks for the next inbound payload.
func (s *Session) Receive() ([]byte, error) {
	return s.conn.ReadPayload()
}

// Allow consumes one command token. It always succeeds when no rate limit is
// configured.
func (s *Session) Allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

// Close shuts down the session. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnected)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// writeLoop drains OutQueue onto the transport. A write error stops the
// writer and marks the session send-failed, but leaves the connection open:
// the read side decides when the session ends.
func (s *Session) writeLoop() {
	for {
		select {
		case data := <-s.OutQueue:
			if err := s.write(data); err != nil {
				s.sendFailed.Store(true)
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) write(data []byte) error {
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WritePayload(data)
}
