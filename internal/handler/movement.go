package handler

import (
	"github.com/lanewars/server/internal/metrics"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"github.com/lanewars/server/internal/vec"
	"go.uber.org/zap"
)

// HandleMove processes C_MOVE {x, y}. The destination is taken as-is; it may
// lie outside the map.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	t, err := r.ReadTarget()
	if err != nil {
		sess.Log().Debug("bad move", zap.Error(err))
		metrics.RecordCommand("move", "malformed")
		return
	}

	deps.World.Lock()
	defer deps.World.Unlock()
	hero := liveHero(sess, deps)
	if hero == nil {
		metrics.RecordCommand("move", "ignored")
		return
	}
	hero.Hero.Dest = vec.New(t.X, t.Y)
	metrics.RecordCommand("move", "applied")
}
