package handler

import (
	"github.com/lanewars/server/internal/metrics"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"github.com/lanewars/server/internal/vec"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap"
)

// HandleSkillQ processes C_SKILL_Q {x, y}: a skill shot toward a fixed point.
// It needs the Q cooldown at or below zero and enough mana; otherwise it is
// dropped without a reply.
func HandleSkillQ(sess *net.Session, r *packet.Reader, deps *Deps) {
	t, err := r.ReadTarget()
	if err != nil {
		sess.Log().Debug("bad skill_q", zap.Error(err))
		metrics.RecordCommand("skill_q", "malformed")
		return
	}

	deps.World.Lock()
	defer deps.World.Unlock()
	hero := liveHero(sess, deps)
	if hero == nil {
		metrics.RecordCommand("skill_q", "ignored")
		return
	}
	q := deps.World.Layout().Projectiles.SkillQ
	h := hero.Hero
	if h.QCooldown > 0 || h.Mana < q.ManaCost {
		metrics.RecordCommand("skill_q", "ignored")
		return
	}
	h.Mana -= q.ManaCost
	h.QCooldown = h.QMaxCooldown
	deps.World.SpawnProjectile(hero, vec.New(t.X, t.Y), q.Speed, q.Damage, world.ProjectileSkillQ)
	metrics.RecordCommand("skill_q", "applied")
}
