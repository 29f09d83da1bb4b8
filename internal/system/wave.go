package system

import (
	"time"

	"github.com/lanewars/server/internal/core/event"
	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/vec"
	"github.com/lanewars/server/internal/world"
)

// WaveSystem spawns a creep wave for each team every wave interval of wall
// clock time. The first wave comes one interval after construction.
// Phase 0 (Spawn).
type WaveSystem struct {
	world    *world.State
	bus      *event.Bus
	now      func() time.Time
	interval time.Duration
	last     time.Time
	wave     int
}

func NewWaveSystem(ws *world.State, bus *event.Bus, now func() time.Time) *WaveSystem {
	return &WaveSystem{
		world:    ws,
		bus:      bus,
		now:      now,
		interval: ws.Layout().Rules.WaveInterval,
		last:     now(),
	}
}

func (s *WaveSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *WaveSystem) Update(_ time.Duration) {
	t := s.now()
	if t.Sub(s.last) <= s.interval {
		return
	}
	s.last = t
	s.wave++

	layout := s.world.Layout()
	radiant, dire := layout.Team("radiant"), layout.Team("dire")
	uids := make([]uint64, 0, 2*layout.Rules.WaveSize)
	for i := 0; i < layout.Rules.WaveSize; i++ {
		f := float64(i)
		r := s.world.SpawnCreep(world.TeamRadiant, vec.New(
			radiant.WaveOrigin.X+radiant.WaveStep.X*f,
			radiant.WaveOrigin.Y+radiant.WaveStep.Y*f,
		))
		d := s.world.SpawnCreep(world.TeamDire, vec.New(
			dire.WaveOrigin.X+dire.WaveStep.X*f,
			dire.WaveOrigin.Y+dire.WaveStep.Y*f,
		))
		uids = append(uids, r.UID, d.UID)
	}
	event.Emit(s.bus, event.WaveSpawned{Wave: s.wave, UIDs: uids})
}
