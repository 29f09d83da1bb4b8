package system

import (
	"time"

	"github.com/lanewars/server/internal/core/event"
	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/world"
)

// CleanupSystem deletes everything scheduled or flagged for removal this
// tick. Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
	bus   *event.Bus
}

func NewCleanupSystem(ws *world.State, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{world: ws, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, e := range s.world.Sweep() {
		event.Emit(s.bus, event.EntityRemoved{UID: e.UID, Kind: e.Kind.String()})
	}
}
