package handler

import (
	"github.com/lanewars/server/internal/core/event"
	"github.com/lanewars/server/internal/net"
)

// Disconnect is the only path that deletes a hero. It drops the session from
// the broadcast set, removes its hero and any pending respawn, and closes the
// connection. Calling it twice is harmless.
func Disconnect(sess *net.Session, deps *Deps) {
	deps.Broadcast.Remove(sess.ID)

	deps.World.Lock()
	if uid, ok := deps.World.RemovePlayer(sess.ID); ok {
		deps.World.Remove(uid)
		deps.World.ClearRespawn(uid)
		event.Emit(deps.Bus, event.PlayerLeft{SessionID: sess.ID, HeroUID: uid})
	}
	deps.World.Unlock()

	sess.Close()
}
