package system

import (
	"time"

	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/world"
)

// CombatSystem runs targeting and auto-attacks. Phase 2 (Combat).
//
// Attackers and candidates are both scanned in ascending uid order. A
// candidate at distance <= the best so far replaces it, so among equally
// distant enemies the one with the higher uid is chosen.
type CombatSystem struct {
	world *world.State
	speed float64 // auto-attack projectile speed
}

func NewCombatSystem(ws *world.State) *CombatSystem {
	return &CombatSystem{world: ws, speed: ws.Layout().Projectiles.AutoSpeed}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(_ time.Duration) {
	ents := s.world.Entities()
	for _, e := range ents {
		atk := e.Attacker()
		if atk == nil || !e.Alive || atk.Cooldown > 0 {
			continue
		}
		target := SelectTarget(e, atk.Range, ents)
		if target == nil {
			continue
		}
		atk.Cooldown = atk.Interval
		s.world.SpawnProjectile(e, target.Pos, s.speed, atk.Damage, world.ProjectileAuto)
	}
}

// SelectTarget returns the nearest alive, non-projectile enemy of attacker
// within rng, scanning candidates in the given order.
func SelectTarget(attacker *world.Entity, rng float64, candidates []*world.Entity) *world.Entity {
	var best *world.Entity
	minDist := rng
	for _, o := range candidates {
		if o.UID == attacker.UID || o.Team == attacker.Team || !o.Alive || o.Kind == world.KindProjectile {
			continue
		}
		if d := attacker.Pos.Dist(o.Pos); d <= minDist {
			minDist = d
			best = o
		}
	}
	return best
}
