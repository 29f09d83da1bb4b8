package world

import (
	"testing"
	"time"

	"github.com/lanewars/server/internal/data"
	"github.com/lanewars/server/internal/vec"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(data.DefaultLayout())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func TestNewStatePlacesStructures(t *testing.T) {
	s := newTestState(t)

	want := map[uint64]Kind{1: KindNexus, 2: KindTower, 3: KindTower, 10: KindNexus, 11: KindTower, 12: KindTower}
	if s.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", s.Len(), len(want))
	}
	for uid, kind := range want {
		e := s.Get(uid)
		if e == nil || e.Kind != kind {
			t.Fatalf("uid %d = %+v, want %v", uid, e, kind)
		}
	}
	if n := s.Get(1); n.HP != 2500 || n.Team != TeamRadiant || n.Attacker() != nil {
		t.Errorf("radiant nexus = %+v", n)
	}
	if tw := s.Get(11); tw.Pos != vec.New(1400, 1400) || tw.Team != TeamDire {
		t.Errorf("dire tower = %+v", tw)
	}
}

func TestUIDsGrowAndAreNeverReused(t *testing.T) {
	s := newTestState(t)

	first := s.SpawnHero(TeamRadiant, "a")
	if first.UID != 1001 {
		t.Fatalf("first dynamic uid = %d, want 1001", first.UID)
	}
	s.Remove(first.UID)
	second := s.SpawnHero(TeamDire, "b")
	if second.UID <= first.UID {
		t.Fatalf("uid %d reused or decreased after %d", second.UID, first.UID)
	}

	var prev uint64
	for _, e := range s.Entities() {
		if e.UID <= prev {
			t.Fatalf("Entities not strictly ascending: %d after %d", e.UID, prev)
		}
		prev = e.UID
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newTestState(t)
	c := s.SpawnCreep(TeamRadiant, vec.New(300, 300))

	if !s.Remove(c.UID) {
		t.Fatal("first Remove reported absent")
	}
	n := s.Len()
	if s.Remove(c.UID) {
		t.Fatal("second Remove reported present")
	}
	if s.Len() != n {
		t.Fatalf("Len changed on repeated Remove: %d -> %d", n, s.Len())
	}
}

func TestSweepRemovesScheduledAndFlagged(t *testing.T) {
	s := newTestState(t)
	c := s.SpawnCreep(TeamDire, vec.New(1700, 1700))
	h := s.SpawnHero(TeamRadiant, "p")
	p := s.SpawnProjectile(h, vec.New(500, 500), 300, 20, ProjectileAuto)
	p.ToDelete = true

	s.ScheduleRemoval(c.UID)
	s.ScheduleRemoval(c.UID)
	removed := s.Sweep()

	if len(removed) != 2 || removed[0].UID != c.UID || removed[1].UID != p.UID {
		t.Fatalf("removed = %v", removed)
	}
	if s.Get(c.UID) != nil || s.Get(p.UID) != nil || s.Get(h.UID) == nil {
		t.Fatal("sweep removed the wrong entities")
	}
	if again := s.Sweep(); len(again) != 0 {
		t.Fatalf("second sweep removed %d entities", len(again))
	}
}

func TestApplyDamage(t *testing.T) {
	s := newTestState(t)
	h := s.SpawnHero(TeamRadiant, "p")
	c := s.SpawnCreep(TeamDire, vec.New(1000, 1000))

	if s.ApplyDamage(c, 100) {
		t.Fatal("creep died at 50 hp")
	}
	if c.HP != 50 {
		t.Fatalf("creep hp = %v", c.HP)
	}
	if !s.ApplyDamage(c, 500) {
		t.Fatal("lethal damage did not report death")
	}
	if c.HP != 0 || c.Alive {
		t.Fatalf("dead creep = hp %v alive %v", c.HP, c.Alive)
	}
	if s.ApplyDamage(c, 10) {
		t.Fatal("death transition ran twice")
	}
	if c.HP != 0 {
		t.Fatalf("hp went below zero: %v", c.HP)
	}

	if !s.ApplyDamage(h, h.MaxHP) {
		t.Fatal("hero did not die")
	}
	if h.Pos != s.OffMap() {
		t.Fatalf("dead hero at %v, want off map %v", h.Pos, s.OffMap())
	}
}

func TestTakeDamageIgnoresNegativeAmounts(t *testing.T) {
	s := newTestState(t)
	tw := s.Get(2)
	tw.TakeDamage(-50)
	if tw.HP != tw.MaxHP {
		t.Fatalf("negative damage healed past max: %v", tw.HP)
	}
}

func TestPlayers(t *testing.T) {
	s := newTestState(t)
	h := s.SpawnHero(TeamRadiant, "p")
	s.AddPlayer(7, h.UID)

	if got := s.HeroFor(7); got != h {
		t.Fatalf("HeroFor = %v", got)
	}
	if s.PlayerCount() != 1 {
		t.Fatalf("PlayerCount = %d", s.PlayerCount())
	}
	uid, ok := s.RemovePlayer(7)
	if !ok || uid != h.UID {
		t.Fatalf("RemovePlayer = %d, %v", uid, ok)
	}
	if s.HeroFor(7) != nil {
		t.Fatal("session still resolves after removal")
	}
	if _, ok := s.RemovePlayer(7); ok {
		t.Fatal("second RemovePlayer succeeded")
	}
}

func TestRespawnTimers(t *testing.T) {
	s := newTestState(t)
	s.StartRespawn(1005, 5*time.Second)
	s.StartRespawn(1002, 5*time.Second)

	if !s.RespawnPending(1005) {
		t.Fatal("timer not pending")
	}
	if left, _ := s.RespawnLeft(1002); left != 5 {
		t.Fatalf("left = %v", left)
	}
	if got := s.RespawnUIDs(); len(got) != 2 || got[0] != 1002 || got[1] != 1005 {
		t.Fatalf("RespawnUIDs = %v", got)
	}
	s.ClearRespawn(1002)
	if s.RespawnPending(1002) {
		t.Fatal("timer survived Clear")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := newTestState(t)
	h := s.SpawnHero(TeamRadiant, "p")
	c := s.SpawnCreep(TeamRadiant, vec.New(300, 300))

	snap := s.Snapshot(9, time.Unix(100, 500_000_000))
	if snap.Tick != 9 || snap.ServerTime != 100.5 {
		t.Fatalf("snapshot header = %d %v", snap.Tick, snap.ServerTime)
	}
	if len(snap.Entities) != s.Len() {
		t.Fatalf("snapshot has %d entities, table %d", len(snap.Entities), s.Len())
	}

	h.Hero.Mana = 1
	h.Pos = vec.New(9, 9)
	c.Creep.Waypoints[0] = vec.New(0, 0)

	hc, ok := snap.Find(h.UID)
	if !ok || hc.Hero.Mana != 200 || hc.Pos != vec.New(250, 250) {
		t.Fatalf("snapshot hero changed with live table: %+v %+v", hc, hc.Hero)
	}
	cc, _ := snap.Find(c.UID)
	if cc.Creep.Waypoints[0] != vec.New(1800, 1800) {
		t.Fatalf("snapshot waypoint aliased live slice: %v", cc.Creep.Waypoints)
	}
}
