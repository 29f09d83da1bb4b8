package system

import (
	"time"

	"github.com/lanewars/server/internal/core/event"
	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/world"
)

// RespawnSystem counts down hero respawn timers and restores heroes whose
// timer has run out. Phase 5 (Respawn).
type RespawnSystem struct {
	world *world.State
	bus   *event.Bus
}

func NewRespawnSystem(ws *world.State, bus *event.Bus) *RespawnSystem {
	return &RespawnSystem{world: ws, bus: bus}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseRespawn }

func (s *RespawnSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	for _, uid := range s.world.RespawnUIDs() {
		left, _ := s.world.RespawnLeft(uid)
		left -= sec
		if left > 0 {
			s.world.SetRespawnLeft(uid, left)
			continue
		}
		s.world.ClearRespawn(uid)

		h := s.world.Get(uid)
		if h == nil || h.Kind != world.KindHero {
			continue // disconnected while dead
		}
		h.Alive = true
		h.HP = h.MaxHP
		h.Hero.Mana = h.Hero.MaxMana
		h.Pos = s.world.SpawnPoint(h.Team)
		h.Hero.Dest = h.Pos
		event.Emit(s.bus, event.HeroRespawned{HeroUID: uid, Team: h.Team.String()})
	}
}
