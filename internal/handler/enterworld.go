package handler

import (
	"fmt"

	"github.com/lanewars/server/internal/core/event"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap"
)

// Connect admits a new session: it picks a team by player-count parity,
// spawns the hero, sends INIT and adds the session to the broadcast set.
// INIT is written before the writer starts and before the session can
// receive STATE, so it is always the first message on the wire.
func Connect(sess *net.Session, deps *Deps) error {
	deps.World.Lock()
	n := deps.World.PlayerCount()
	team := world.TeamRadiant
	if n%2 == 1 {
		team = world.TeamDire
	}
	hero := deps.World.SpawnHero(team, fmt.Sprintf("Player %d", n+1))
	deps.World.AddPlayer(sess.ID, hero.UID)
	event.Emit(deps.Bus, event.PlayerJoined{
		SessionID: sess.ID,
		HeroUID:   hero.UID,
		Team:      team.String(),
		Addr:      sess.IP,
	})
	m := deps.World.Layout().Map
	deps.World.Unlock()

	payload, err := packet.Build(packet.S_OPCODE_INIT, packet.Init{
		Version: packet.ProtocolVersion,
		UID:     hero.UID,
		MapSize: [2]float64{m.Width, m.Height},
		Match:   deps.MatchID,
	})
	if err == nil {
		err = sess.WriteDirect(payload)
	}
	if err != nil {
		Disconnect(sess, deps)
		return fmt.Errorf("send init: %w", err)
	}

	sess.SetState(packet.StateActive)
	sess.Start()
	deps.Broadcast.Add(sess)
	sess.Log().Info("hero assigned",
		zap.Uint64("hero", hero.UID),
		zap.String("team", team.String()),
		zap.String("ip", sess.IP),
	)
	return nil
}
