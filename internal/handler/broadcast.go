package handler

import (
	"sync"

	"github.com/lanewars/server/internal/metrics"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap"
)

// Broadcaster fans every tick's snapshot out to the broadcast set. A session
// whose send fails leaves the set; its hero stays in the world until the
// session's read side fails and Disconnect runs.
type Broadcaster struct {
	mu       sync.Mutex
	sessions map[uint64]*net.Session
	log      *zap.Logger
}

func NewBroadcaster(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		sessions: make(map[uint64]*net.Session),
		log:      log,
	}
}

func (b *Broadcaster) Add(sess *net.Session) {
	b.mu.Lock()
	b.sessions[sess.ID] = sess
	b.mu.Unlock()
}

func (b *Broadcaster) Remove(id uint64) {
	b.mu.Lock()
	delete(b.sessions, id)
	b.mu.Unlock()
}

func (b *Broadcaster) Has(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[id]
	return ok
}

func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Publish encodes snap once and queues it on every session in the set.
func (b *Broadcaster) Publish(snap world.Snapshot) {
	data, err := packet.Build(packet.S_OPCODE_STATE, BuildState(snap))
	if err != nil {
		b.log.Error("encode state failed", zap.Uint64("tick", snap.Tick), zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sess := range b.sessions {
		if err := sess.Send(data); err != nil {
			delete(b.sessions, id)
			metrics.RecordBroadcastDropped()
			sess.Log().Debug("dropped from broadcast", zap.Error(err))
			continue
		}
		metrics.RecordBroadcast(len(data))
	}
}

// BuildState converts a snapshot into the STATE record.
func BuildState(snap world.Snapshot) packet.State {
	st := packet.State{
		Tick:       snap.Tick,
		ServerTime: snap.ServerTime,
		Entities:   make(map[uint64]packet.EntityState, len(snap.Entities)),
	}
	for i := range snap.Entities {
		e := &snap.Entities[i]
		es := packet.EntityState{
			UID:    e.UID,
			Kind:   e.Kind.String(),
			X:      e.Pos.X,
			Y:      e.Pos.Y,
			Radius: e.Radius,
			Team:   e.Team.String(),
			HP:     e.HP,
			MaxHP:  e.MaxHP,
			Alive:  e.Alive,
		}
		if h := e.Hero; h != nil {
			es.Hero = &packet.HeroState{
				Name:      h.Name,
				Mana:      h.Mana,
				MaxMana:   h.MaxMana,
				Dest:      packet.Point{X: h.Dest.X, Y: h.Dest.Y},
				QCooldown: h.QCooldown,
				WCooldown: h.WCooldown,
				ECooldown: h.ECooldown,
				Level:     h.Level,
				Exp:       h.Exp,
				Gold:      h.Gold,
			}
		}
		if p := e.Projectile; p != nil {
			es.Projectile = &packet.ProjectileState{
				Owner:  p.Owner,
				Target: packet.Point{X: p.Target.X, Y: p.Target.Y},
				Kind:   string(p.Kind),
				TTL:    p.TTL,
			}
		}
		st.Entities[e.UID] = es
	}
	return st
}
