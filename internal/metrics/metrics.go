// Package metrics holds the server's Prometheus collectors. Labels are
// bounded: no per-player or per-entity label values.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lanewars_tick_duration_seconds",
		Help:    "Time spent simulating one tick under the world lock",
		Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.016, 0.033},
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lanewars_phase_duration_seconds",
		Help:    "Time spent in one tick phase",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	}, []string{"phase"})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lanewars_entities",
		Help: "Entities in the world table after the last tick",
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lanewars_players",
		Help: "Connected players with a hero",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lanewars_commands_total",
		Help: "Inbound commands by opcode name and outcome",
	}, []string{"command", "outcome"}) // outcome: applied, ignored, malformed, throttled, rejected, unknown

	broadcastBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanewars_broadcast_bytes_total",
		Help: "Serialized snapshot bytes handed to the broadcast set",
	})

	broadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanewars_broadcast_dropped_total",
		Help: "Connections removed from the broadcast set after a failed send",
	})

	gameEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lanewars_game_events_total",
		Help: "Game events by type",
	}, []string{"event"}) // bounded: "hero_died", "hero_respawned", "wave", "removed", "joined", "left"
)

func ObserveTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

func ObservePhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func SetEntities(n int) { entityCount.Set(float64(n)) }

func SetPlayers(n int) { playerCount.Set(float64(n)) }

func RecordCommand(command, outcome string) { commandsTotal.WithLabelValues(command, outcome).Inc() }

func RecordBroadcast(bytes int) { broadcastBytes.Add(float64(bytes)) }

func RecordBroadcastDropped() { broadcastDropped.Inc() }

func RecordEvent(name string) { gameEvents.WithLabelValues(name).Inc() }
