package handler

import (
	"github.com/lanewars/server/internal/core/event"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World     *world.State
	Bus       *event.Bus // only touched under the world lock
	Broadcast *Broadcaster
	MatchID   string
	Log       *zap.Logger
}

// RegisterAll registers all command handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	active := []packet.SessionState{packet.StateActive}

	reg.Register(packet.C_OPCODE_MOVE, active,
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SKILL_Q, active,
		func(sess any, r *packet.Reader) {
			HandleSkillQ(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ATTACK, active,
		func(sess any, r *packet.Reader) {
			HandleAttack(sess.(*net.Session), r, deps)
		},
	)
}

// liveHero resolves the session's hero under the world lock. Commands for a
// missing or dead hero are dropped.
func liveHero(sess *net.Session, deps *Deps) *world.Entity {
	h := deps.World.HeroFor(sess.ID)
	if h == nil || !h.Alive {
		return nil
	}
	return h
}
