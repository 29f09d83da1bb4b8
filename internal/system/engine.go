package system

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lanewars/server/internal/core/event"
	coresys "github.com/lanewars/server/internal/core/system"
	"github.com/lanewars/server/internal/metrics"
	"github.com/lanewars/server/internal/scripting"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap"
)

// Publisher receives the snapshot of every tick after the world lock has been
// released.
type Publisher interface {
	Publish(snap world.Snapshot)
}

type Options struct {
	TickRate time.Duration     // loop period
	MaxStep  time.Duration     // ceiling for the elapsed time fed into one step
	Now      func() time.Time  // wall clock; defaults to time.Now
	Lua      *scripting.Engine // optional damage hook
	Log      *zap.Logger
}

// Engine drives the fixed-rate simulation. It is the only writer of the
// entity table besides the validated command path, and both go through the
// table's lock.
type Engine struct {
	world   *world.State
	bus     *event.Bus
	runner  *coresys.Runner
	pub     Publisher
	rate    time.Duration
	maxStep time.Duration
	now     func() time.Time
	log     *zap.Logger

	tick   uint64
	latest atomic.Pointer[world.Snapshot]
}

func NewEngine(ws *world.State, bus *event.Bus, pub Publisher, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TickRate <= 0 {
		opts.TickRate = time.Second / 60
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = opts.TickRate
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	r := coresys.NewRunner()
	r.Register(NewWaveSystem(ws, bus, opts.Now))
	r.Register(NewUpdateSystem(ws))
	r.Register(NewCombatSystem(ws))
	r.Register(NewCollisionSystem(ws, opts.Lua))
	r.Register(NewDeathSystem(ws, bus))
	r.Register(NewRespawnSystem(ws, bus))
	r.Register(NewCleanupSystem(ws, bus))
	r.Observe(func(p coresys.Phase, d time.Duration) {
		metrics.ObservePhase(p.String(), d)
	})

	return &Engine{
		world:   ws,
		bus:     bus,
		runner:  r,
		pub:     pub,
		rate:    opts.TickRate,
		maxStep: opts.MaxStep,
		now:     opts.Now,
		log:     opts.Log,
	}
}

// Step advances the world by dt while holding the table lock and returns the
// snapshot taken at the end of the tick. Events emitted during the previous
// tick, or by sessions since then, are dispatched first.
func (e *Engine) Step(dt time.Duration) world.Snapshot {
	start := time.Now()

	e.world.Lock()
	e.bus.SwapBuffers()
	e.bus.DispatchAll()
	e.runner.Tick(dt)
	e.tick++
	snap := e.world.Snapshot(e.tick, e.now())
	players := e.world.PlayerCount()
	e.world.Unlock()

	metrics.ObserveTick(time.Since(start))
	metrics.SetEntities(len(snap.Entities))
	metrics.SetPlayers(players)
	e.latest.Store(&snap)
	return snap
}

// Latest returns the most recent snapshot, or nil before the first tick.
func (e *Engine) Latest() *world.Snapshot {
	return e.latest.Load()
}

// Run ticks at the configured rate until ctx is cancelled. Each step is fed
// the real time elapsed since the previous one, clamped to MaxStep. The
// snapshot is published after the lock is released so a slow client never
// holds up the simulation.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.rate)
	defer ticker.Stop()

	e.log.Info("simulation loop started",
		zap.Duration("tick", e.rate),
		zap.Duration("max_step", e.maxStep),
	)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.log.Info("simulation loop stopped", zap.Uint64("ticks", e.tick))
			return ctx.Err()
		case t := <-ticker.C:
			dt := t.Sub(last)
			last = t
			if dt > e.maxStep {
				dt = e.maxStep
			}
			snap := e.Step(dt)
			if e.pub != nil {
				e.pub.Publish(snap)
			}
		}
	}
}
