package system

import (
	"time"

	"github.com/lanewars/server/internal/core/event"
	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/world"
)

// DeathSystem turns dead entities into removals or respawn timers.
// Phase 4 (Death).
//
// Non-hero entities at zero health are scheduled for permanent removal.
// A dead hero without a running timer gets one and is parked off the map;
// it stays in the table so its uid remains valid.
type DeathSystem struct {
	world *world.State
	bus   *event.Bus
	delay time.Duration
}

func NewDeathSystem(ws *world.State, bus *event.Bus) *DeathSystem {
	return &DeathSystem{world: ws, bus: bus, delay: ws.Layout().Rules.RespawnDelay}
}

func (s *DeathSystem) Phase() coresys.Phase { return coresys.PhaseDeath }

func (s *DeathSystem) Update(_ time.Duration) {
	for _, e := range s.world.Entities() {
		if e.Alive {
			continue
		}
		if e.Kind != world.KindHero {
			s.world.ScheduleRemoval(e.UID)
			continue
		}
		if s.world.RespawnPending(e.UID) {
			continue
		}
		e.Pos = s.world.OffMap()
		s.world.StartRespawn(e.UID, s.delay)
		event.Emit(s.bus, event.HeroDied{HeroUID: e.UID, Team: e.Team.String()})
	}
}
