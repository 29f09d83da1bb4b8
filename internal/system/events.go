package system

import (
	"github.com/lanewars/server/internal/core/event"
	"github.com/lanewars/server/internal/metrics"
	"go.uber.org/zap"
)

// SubscribeGameLog wires lifecycle events to the logger and the event
// counters.
func SubscribeGameLog(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.PlayerJoined) {
		metrics.RecordEvent("joined")
		log.Info("player joined",
			zap.Uint64("session", e.SessionID),
			zap.Uint64("hero", e.HeroUID),
			zap.String("team", e.Team),
			zap.String("addr", e.Addr),
		)
	})
	event.Subscribe(bus, func(e event.PlayerLeft) {
		metrics.RecordEvent("left")
		log.Info("player left", zap.Uint64("session", e.SessionID), zap.Uint64("hero", e.HeroUID))
	})
	event.Subscribe(bus, func(e event.HeroDied) {
		metrics.RecordEvent("hero_died")
		log.Info("hero died", zap.Uint64("hero", e.HeroUID), zap.String("team", e.Team))
	})
	event.Subscribe(bus, func(e event.HeroRespawned) {
		metrics.RecordEvent("hero_respawned")
		log.Info("hero respawned", zap.Uint64("hero", e.HeroUID), zap.String("team", e.Team))
	})
	event.Subscribe(bus, func(e event.WaveSpawned) {
		metrics.RecordEvent("wave")
		log.Info("creep wave", zap.Int("wave", e.Wave), zap.Int("creeps", len(e.UIDs)))
	})
	event.Subscribe(bus, func(e event.EntityRemoved) {
		metrics.RecordEvent("removed")
		log.Debug("entity removed", zap.Uint64("uid", e.UID), zap.String("kind", e.Kind))
	})
}
