package handler

import (
	"errors"
	"sync"

	"github.com/lanewars/server/internal/metrics"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"go.uber.org/zap"
)

// Manager runs the per-connection lifecycle for every transport:
// Connecting → Active → Disconnected.
type Manager struct {
	deps *Deps
	reg  *packet.Registry

	mu       sync.Mutex
	sessions map[uint64]*net.Session
	closing  bool
	serving  sync.WaitGroup
}

func NewManager(deps *Deps) *Manager {
	reg := packet.NewRegistry(deps.Log)
	RegisterAll(reg, deps)
	return &Manager{
		deps:     deps,
		reg:      reg,
		sessions: make(map[uint64]*net.Session),
	}
}

// Serve owns sess until its read side fails. It is a net.ConnHandler.
func (m *Manager) Serve(sess *net.Session) {
	if !m.track(sess) {
		sess.Close()
		return
	}
	defer m.serving.Done()
	defer m.untrack(sess.ID)

	if err := Connect(sess, m.deps); err != nil {
		sess.Log().Debug("handshake failed", zap.Error(err))
		return
	}

	for {
		data, err := sess.Receive()
		if err != nil {
			if !sess.IsClosed() {
				sess.Log().Debug("read error", zap.Error(err))
			}
			break
		}
		if len(data) == 0 {
			continue
		}
		if !sess.Allow() {
			metrics.RecordCommand(packet.OpcodeName(data[0]), "throttled")
			continue
		}
		if err := m.reg.Dispatch(sess, sess.State(), data); err != nil {
			outcome := "rejected"
			if errors.Is(err, packet.ErrUnknownOpcode) {
				outcome = "unknown"
			}
			metrics.RecordCommand(packet.OpcodeName(data[0]), outcome)
		}
	}

	Disconnect(sess, m.deps)
	sess.Log().Info("session closed")
}

func (m *Manager) track(sess *net.Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return false
	}
	m.sessions[sess.ID] = sess
	m.serving.Add(1)
	return true
}

func (m *Manager) untrack(id uint64) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of sessions currently being served.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll refuses new sessions and closes the open ones. Each Serve then
// runs its own Disconnect.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.closing = true
	open := make([]*net.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}

// Wait blocks until every admitted Serve call has returned. Call it after
// CloseAll.
func (m *Manager) Wait() {
	m.serving.Wait()
}
