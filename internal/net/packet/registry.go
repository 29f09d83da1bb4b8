package packet

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SessionState is the connection's lifecycle phase.
type SessionState int

const (
	StateConnecting   SessionState = iota // accepted, hero not yet announced
	StateActive                           // INIT sent, commands accepted
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateActive:
		return "Active"
	case StateDisconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ErrNotAllowed is returned when an opcode arrives in the wrong session state.
var ErrNotAllowed = errors.New("opcode not allowed in state")

// HandlerFunc is the callback signature for packet handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps opcodes to handlers with state-based access control.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given session states.
func (reg *Registry) Register(opcode byte, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Dispatch finds the handler for the opcode in data[0], checks the session
// state and calls it. Unknown opcodes yield ErrUnknownOpcode and empty
// payloads ErrMalformed; callers drop both without closing the connection.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	opcode := data[0]
	entry, ok := reg.handlers[opcode]
	if !ok {
		reg.log.Debug("unknown opcode", zap.Uint8("opcode", opcode), zap.String("state", state.String()))
		return fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, opcode)
	}
	if !entry.allowedStates[state] {
		reg.log.Debug("opcode not allowed",
			zap.Uint8("opcode", opcode),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("%w: 0x%02X in %s", ErrNotAllowed, opcode, state)
	}
	return reg.safeCall(entry.fn, sess, NewReader(data), opcode)
}

// safeCall runs a handler with panic recovery so one bad command cannot take
// down the connection's intake goroutine.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, opcode byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint8("opcode", opcode),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for opcode %d: %v", opcode, rec)
		}
	}()
	fn(sess, r)
	return nil
}
