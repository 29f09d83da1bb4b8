package system

import (
	"time"

	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/scripting"
	"github.com/lanewars/server/internal/world"
)

// CollisionSystem resolves projectile hits. Phase 3 (Collision).
//
// A projectile damages the first alive enemy of its owner's team, in
// ascending uid order, whose center is closer than the sum of radii. It is
// single-target and is flagged for removal on hit. A projectile whose owner
// has left the table can hit nobody and just flies out its TTL.
type CollisionSystem struct {
	world *world.State
	lua   *scripting.Engine // optional damage hook
}

func NewCollisionSystem(ws *world.State, lua *scripting.Engine) *CollisionSystem {
	return &CollisionSystem{world: ws, lua: lua}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseCollision }

func (s *CollisionSystem) Update(_ time.Duration) {
	ents := s.world.Entities()
	for _, p := range ents {
		if p.Kind != world.KindProjectile {
			continue
		}
		owner := s.world.Get(p.Projectile.Owner)
		if owner == nil {
			continue
		}
		for _, o := range ents {
			if o.UID == owner.UID || o.Kind == world.KindProjectile || !o.Alive || o.Team == owner.Team {
				continue
			}
			if p.Pos.Dist(o.Pos) >= p.Radius+o.Radius {
				continue
			}
			s.world.ApplyDamage(o, s.damage(owner, o, p))
			p.ToDelete = true
			break
		}
	}
}

func (s *CollisionSystem) damage(owner, target, p *world.Entity) float64 {
	if s.lua == nil {
		return p.Projectile.Damage
	}
	return s.lua.CalcDamage(scripting.DamageContext{
		AttackerKind:   owner.Kind.String(),
		TargetKind:     target.Kind.String(),
		ProjectileKind: string(p.Projectile.Kind),
		Base:           p.Projectile.Damage,
		TargetHP:       target.HP,
		TargetMaxHP:    target.MaxHP,
	})
}
