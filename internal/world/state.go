package world

import (
	"fmt"
	"sort"
	"time"

	"github.com/lanewars/server/internal/data"
	"github.com/lanewars/server/internal/vec"
	"github.com/sasha-s/go-deadlock"
)

// State is the authoritative entity table. A single exclusive lock guards the
// whole table; every method other than Lock and Unlock expects the caller to
// hold it.
type State struct {
	mu deadlock.Mutex

	layout   *data.Layout
	entities map[uint64]*Entity
	order    []*Entity // ascending uid, rebuilt lazily
	dirty    bool
	nextUID  uint64

	players  map[uint64]uint64  // session ID → hero uid
	respawns map[uint64]float64 // hero uid → seconds until respawn
	removals []uint64           // scheduled by the death step
}

// NewState builds the table for layout and places its fixed structures.
func NewState(layout *data.Layout) (*State, error) {
	s := &State{
		layout:   layout,
		entities: make(map[uint64]*Entity, 256),
		nextUID:  layout.Rules.FirstDynamicUID - 1,
		players:  make(map[uint64]uint64),
		respawns: make(map[uint64]float64),
	}
	for _, p := range layout.Structures {
		team, err := ParseTeam(p.Team)
		if err != nil {
			return nil, fmt.Errorf("structure %d: %w", p.UID, err)
		}
		pos := vec.New(p.X, p.Y)
		switch p.Kind {
		case "tower":
			s.Spawn(NewTower(p.UID, pos, team, layout.Units.Tower))
		case "nexus":
			s.Spawn(NewNexus(p.UID, pos, team, layout.Units.Nexus))
		default:
			return nil, fmt.Errorf("structure %d: unknown kind %q", p.UID, p.Kind)
		}
	}
	return s, nil
}

func (s *State) Lock()   { s.mu.Lock() }
func (s *State) Unlock() { s.mu.Unlock() }

func (s *State) Layout() *data.Layout { return s.layout }

// NextUID allocates a fresh identifier. Identifiers only grow and are never
// handed out twice during the life of the process.
func (s *State) NextUID() uint64 {
	s.nextUID++
	return s.nextUID
}

// Spawn inserts e into the table.
func (s *State) Spawn(e *Entity) {
	s.entities[e.UID] = e
	s.dirty = true
}

func (s *State) Get(uid uint64) *Entity {
	return s.entities[uid]
}

// Remove deletes uid from the table. Removing an absent uid is a no-op.
func (s *State) Remove(uid uint64) bool {
	if _, ok := s.entities[uid]; !ok {
		return false
	}
	delete(s.entities, uid)
	s.dirty = true
	return true
}

func (s *State) Len() int { return len(s.entities) }

// Entities returns the table in ascending uid order. The returned slice is
// never modified afterwards, so callers may keep iterating it while spawning
// or removing; later changes show up only in the next call.
func (s *State) Entities() []*Entity {
	if s.dirty || s.order == nil {
		s.order = make([]*Entity, 0, len(s.entities))
		for _, e := range s.entities {
			s.order = append(s.order, e)
		}
		sort.Slice(s.order, func(i, j int) bool { return s.order[i].UID < s.order[j].UID })
		s.dirty = false
	}
	return s.order
}

// SpawnPoint returns the hero spawn of team.
func (s *State) SpawnPoint(team Team) vec.Vec2 {
	t := s.layout.Team(team.String())
	if t == nil {
		return vec.Vec2{}
	}
	return vec.New(t.Spawn.X, t.Spawn.Y)
}

// OffMap is the parking spot for dead heroes, far outside the playable area.
func (s *State) OffMap() vec.Vec2 {
	return vec.New(s.layout.Map.OffMap.X, s.layout.Map.OffMap.Y)
}

// SpawnHero creates a hero at its team's spawn point.
func (s *State) SpawnHero(team Team, name string) *Entity {
	h := NewHero(s.NextUID(), s.SpawnPoint(team), team, name, s.layout.Units.Hero)
	s.Spawn(h)
	return h
}

// SpawnCreep creates a creep at pos heading for its team's lane target.
func (s *State) SpawnCreep(team Team, pos vec.Vec2) *Entity {
	var target vec.Vec2
	if t := s.layout.Team(team.String()); t != nil {
		target = vec.New(t.LaneTarget.X, t.LaneTarget.Y)
	}
	c := NewCreep(s.NextUID(), pos, team, target, s.layout.Units.Creep)
	s.Spawn(c)
	return c
}

// SpawnProjectile fires a projectile from owner's current position toward a
// fixed point.
func (s *State) SpawnProjectile(owner *Entity, target vec.Vec2, speed, damage float64, kind ProjectileKind) *Entity {
	p := NewProjectile(s.NextUID(), owner.Pos, owner.UID, target, speed, damage,
		s.layout.Projectiles.TTL, s.layout.Projectiles.Radius, kind)
	s.Spawn(p)
	return p
}

// ApplyDamage damages e and runs the death transition once. A hero that dies
// is parked off the map so it can neither be targeted nor collide.
func (s *State) ApplyDamage(e *Entity, amount float64) bool {
	if !e.TakeDamage(amount) {
		return false
	}
	if e.Kind == KindHero {
		e.Pos = s.OffMap()
	}
	return true
}

// ── players ──────────────────────────────────────────────────────

func (s *State) AddPlayer(sessionID, heroUID uint64) {
	s.players[sessionID] = heroUID
}

// RemovePlayer forgets the session and returns its hero uid.
func (s *State) RemovePlayer(sessionID uint64) (uint64, bool) {
	uid, ok := s.players[sessionID]
	if ok {
		delete(s.players, sessionID)
	}
	return uid, ok
}

// HeroFor resolves the hero owned by a session. It returns nil when the
// session has no hero or the hero has left the table.
func (s *State) HeroFor(sessionID uint64) *Entity {
	uid, ok := s.players[sessionID]
	if !ok {
		return nil
	}
	return s.entities[uid]
}

func (s *State) PlayerCount() int { return len(s.players) }

// ── respawn timers ───────────────────────────────────────────────

func (s *State) RespawnPending(uid uint64) bool {
	_, ok := s.respawns[uid]
	return ok
}

func (s *State) StartRespawn(uid uint64, delay time.Duration) {
	s.respawns[uid] = delay.Seconds()
}

// RespawnLeft returns the seconds remaining on uid's timer.
func (s *State) RespawnLeft(uid uint64) (float64, bool) {
	t, ok := s.respawns[uid]
	return t, ok
}

func (s *State) SetRespawnLeft(uid uint64, left float64) {
	s.respawns[uid] = left
}

func (s *State) ClearRespawn(uid uint64) {
	delete(s.respawns, uid)
}

// RespawnUIDs lists heroes with an active timer in ascending uid order.
func (s *State) RespawnUIDs() []uint64 {
	uids := make([]uint64, 0, len(s.respawns))
	for uid := range s.respawns {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}

// ── removal ──────────────────────────────────────────────────────

// ScheduleRemoval queues uid for the end-of-tick sweep.
func (s *State) ScheduleRemoval(uid uint64) {
	s.removals = append(s.removals, uid)
}

// Sweep deletes every scheduled uid and every entity flagged ToDelete, and
// returns the removed entities in ascending uid order.
func (s *State) Sweep() []*Entity {
	seen := make(map[uint64]bool, len(s.removals))
	var removed []*Entity
	for _, uid := range s.removals {
		if e := s.entities[uid]; e != nil && !seen[uid] {
			seen[uid] = true
			removed = append(removed, e)
		}
	}
	s.removals = s.removals[:0]
	for _, e := range s.Entities() {
		if e.ToDelete && !seen[e.UID] {
			seen[e.UID] = true
			removed = append(removed, e)
		}
	}
	for _, e := range removed {
		s.Remove(e.UID)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].UID < removed[j].UID })
	return removed
}
