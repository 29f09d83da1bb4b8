package system

import (
	"time"

	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/world"
)

// UpdateSystem advances every entity by dt, dispatching on its variant:
// movement, cooldowns, regeneration and projectile flight. Phase 1 (Update).
type UpdateSystem struct {
	world  *world.State
	arrive float64
}

func NewUpdateSystem(ws *world.State) *UpdateSystem {
	return &UpdateSystem{world: ws, arrive: ws.Layout().Rules.ArriveDistance}
}

func (s *UpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *UpdateSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	for _, e := range s.world.Entities() {
		switch e.Kind {
		case world.KindHero:
			s.updateHero(e, sec)
		case world.KindCreep:
			s.updateCreep(e, sec)
		case world.KindTower:
			if e.Alive {
				cooldown(&e.Tower.Attack.Cooldown, sec)
			}
		case world.KindProjectile:
			s.updateProjectile(e, sec)
		}
	}
}

// cooldown counts v down while it is positive. The last step may leave it
// slightly negative; readers compare against zero.
func cooldown(v *float64, sec float64) {
	if *v > 0 {
		*v -= sec
	}
}

func regen(cur *float64, max, perSec, sec float64) {
	if *cur < max {
		*cur += perSec * sec
		if *cur > max {
			*cur = max
		}
	}
}

func (s *UpdateSystem) updateHero(e *world.Entity, sec float64) {
	if !e.Alive {
		return
	}
	h := e.Hero
	if e.Pos.Dist(h.Dest) > s.arrive {
		e.Pos = e.Pos.MoveToward(h.Dest, h.Speed*sec)
	}
	cooldown(&h.Attack.Cooldown, sec)
	cooldown(&h.QCooldown, sec)
	cooldown(&h.WCooldown, sec)
	cooldown(&h.ECooldown, sec)
	regen(&e.HP, e.MaxHP, h.HPRegen, sec)
	regen(&h.Mana, h.MaxMana, h.ManaRegen, sec)
}

func (s *UpdateSystem) updateCreep(e *world.Entity, sec float64) {
	if !e.Alive {
		return
	}
	c := e.Creep
	if len(c.Waypoints) > 0 {
		next := c.Waypoints[0]
		if e.Pos.Dist(next) > s.arrive {
			e.Pos = e.Pos.MoveToward(next, c.Speed*sec)
		} else {
			c.Waypoints = c.Waypoints[1:]
		}
	}
	cooldown(&c.Attack.Cooldown, sec)
}

func (s *UpdateSystem) updateProjectile(e *world.Entity, sec float64) {
	p := e.Projectile
	e.Pos = e.Pos.MoveToward(p.Target, p.Speed*sec)
	p.TTL -= sec
	if p.TTL <= 0 || e.Pos.Dist(p.Target) < s.arrive {
		e.ToDelete = true
	}
}
