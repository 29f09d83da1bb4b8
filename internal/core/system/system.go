package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseSpawn     Phase = iota // 0: creep waves
	PhaseUpdate                 // 1: per-entity movement, cooldowns, regen, projectile flight
	PhaseCombat                 // 2: targeting + auto-attack
	PhaseCollision              // 3: projectile hits
	PhaseDeath                  // 4: schedule removals, start respawn timers
	PhaseRespawn                // 5: advance respawn timers
	PhaseCleanup                // 6: removal sweep
)

func (p Phase) String() string {
	switch p {
	case PhaseSpawn:
		return "spawn"
	case PhaseUpdate:
		return "update"
	case PhaseCombat:
		return "combat"
	case PhaseCollision:
		return "collision"
	case PhaseDeath:
		return "death"
	case PhaseRespawn:
		return "respawn"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
