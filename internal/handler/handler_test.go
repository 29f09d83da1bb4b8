package handler

import (
	gonet "net"
	"testing"
	"time"

	"github.com/lanewars/server/internal/core/event"
	"github.com/lanewars/server/internal/data"
	"github.com/lanewars/server/internal/net"
	"github.com/lanewars/server/internal/net/packet"
	"github.com/lanewars/server/internal/vec"
	"github.com/lanewars/server/internal/world"
	"go.uber.org/zap/zaptest"
)

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	ws, err := world.NewState(data.DefaultLayout())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	log := zaptest.NewLogger(t)
	return &Deps{
		World:     ws,
		Bus:       event.NewBus(),
		Broadcast: NewBroadcaster(log),
		MatchID:   "match-test",
		Log:       log,
	}
}

func newPipe(t *testing.T, queue int) (*net.Session, gonet.Conn) {
	t.Helper()
	server, client := gonet.Pipe()
	sess := net.NewSession(net.NewTCPConn(server, 0), net.NextSessionID(),
		net.SessionConfig{OutQueueSize: queue}, zaptest.NewLogger(t))
	t.Cleanup(func() {
		sess.Close()
		client.Close()
	})
	return sess, client
}

func readRecord(t *testing.T, client gonet.Conn, op byte, v any) {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	payload, err := net.ReadFrame(client, 0)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	r := packet.NewReader(payload)
	if r.Opcode() != op {
		t.Fatalf("opcode = 0x%02X, want 0x%02X", r.Opcode(), op)
	}
	if err := r.Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// connect runs Connect against a pipe and returns the INIT the client saw.
func connect(t *testing.T, deps *Deps, queue int) (*net.Session, gonet.Conn, packet.Init) {
	t.Helper()
	sess, client := newPipe(t, queue)
	done := make(chan error, 1)
	go func() { done <- Connect(sess, deps) }()

	var init packet.Init
	readRecord(t, client, packet.S_OPCODE_INIT, &init)
	if err := <-done; err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return sess, client, init
}

func command(t *testing.T, op byte, body any) *packet.Reader {
	t.Helper()
	data, err := packet.Build(op, body)
	if err != nil {
		t.Fatal(err)
	}
	return packet.NewReader(data)
}

func TestConnectAssignsTeamsByParity(t *testing.T) {
	deps := newTestDeps(t)

	wantTeams := []world.Team{world.TeamRadiant, world.TeamDire, world.TeamRadiant}
	wantSpawns := []vec.Vec2{vec.New(250, 250), vec.New(1750, 1750), vec.New(250, 250)}
	for i := range wantTeams {
		sess, _, init := connect(t, deps, 4)
		if init.Version != packet.ProtocolVersion || init.Match != "match-test" {
			t.Errorf("init header = %+v", init)
		}
		if init.MapSize != [2]float64{2000, 2000} {
			t.Errorf("map size = %v", init.MapSize)
		}
		if sess.State() != packet.StateActive || !deps.Broadcast.Has(sess.ID) {
			t.Errorf("session %d not active/broadcasting", sess.ID)
		}

		hero := deps.World.Get(init.UID)
		if hero == nil || hero.Kind != world.KindHero {
			t.Fatalf("INIT uid %d is not a hero", init.UID)
		}
		if hero.Team != wantTeams[i] || hero.Pos != wantSpawns[i] {
			t.Errorf("player %d: team %v at %+v", i, hero.Team, hero.Pos)
		}
		if want := "Player " + string(rune('1'+i)); hero.Hero.Name != want {
			t.Errorf("name = %q, want %q", hero.Hero.Name, want)
		}
		if deps.World.HeroFor(sess.ID) != hero {
			t.Error("session not mapped to its hero")
		}
	}
	if n := deps.World.PlayerCount(); n != 3 {
		t.Errorf("players = %d", n)
	}
}

func TestSkillQSpendsManaAndFires(t *testing.T) {
	deps := newTestDeps(t)
	sess, _, init := connect(t, deps, 4)
	hero := deps.World.Get(init.UID)
	before := deps.World.Len()

	HandleSkillQ(sess, command(t, packet.C_OPCODE_SKILL_Q, packet.Target{X: 500, Y: 500}), deps)

	if hero.Hero.Mana != 180 || hero.Hero.QCooldown != 5 {
		t.Fatalf("mana=%v qcd=%v, want 180/5", hero.Hero.Mana, hero.Hero.QCooldown)
	}
	if deps.World.Len() != before+1 {
		t.Fatalf("entities %d -> %d, want one new projectile", before, deps.World.Len())
	}
	var shot *world.Entity
	for _, e := range deps.World.Entities() {
		if e.Kind == world.KindProjectile {
			shot = e
		}
	}
	p := shot.Projectile
	if p.Owner != hero.UID || p.Target != vec.New(500, 500) || p.Kind != world.ProjectileSkillQ ||
		p.Speed != 400 || p.Damage != 50 || shot.Pos != hero.Pos {
		t.Errorf("projectile = %+v at %+v", p, shot.Pos)
	}

	// cooldown running: no second shot
	HandleSkillQ(sess, command(t, packet.C_OPCODE_SKILL_Q, packet.Target{X: 1, Y: 1}), deps)
	if hero.Hero.Mana != 180 || deps.World.Len() != before+1 {
		t.Error("skill fired during cooldown")
	}
}

func TestSkillQNeedsMana(t *testing.T) {
	deps := newTestDeps(t)
	sess, _, init := connect(t, deps, 4)
	hero := deps.World.Get(init.UID)
	hero.Hero.Mana = 19.9
	before := deps.World.Len()

	HandleSkillQ(sess, command(t, packet.C_OPCODE_SKILL_Q, packet.Target{X: 500, Y: 500}), deps)
	if hero.Hero.Mana != 19.9 || hero.Hero.QCooldown != 0 || deps.World.Len() != before {
		t.Errorf("skill fired without mana: mana=%v qcd=%v", hero.Hero.Mana, hero.Hero.QCooldown)
	}
}

func TestMoveSetsDestination(t *testing.T) {
	deps := newTestDeps(t)
	sess, _, init := connect(t, deps, 4)
	hero := deps.World.Get(init.UID)

	HandleMove(sess, command(t, packet.C_OPCODE_MOVE, packet.Target{X: -300, Y: 5000}), deps)
	if hero.Hero.Dest != vec.New(-300, 5000) {
		t.Fatalf("dest = %+v", hero.Hero.Dest)
	}

	HandleMove(sess, packet.NewReader([]byte{packet.C_OPCODE_MOVE, 0xc1}), deps)
	if hero.Hero.Dest != vec.New(-300, 5000) {
		t.Errorf("malformed move changed dest to %+v", hero.Hero.Dest)
	}
}

func TestDeadHeroIgnoresCommands(t *testing.T) {
	deps := newTestDeps(t)
	sess, _, init := connect(t, deps, 4)
	hero := deps.World.Get(init.UID)
	deps.World.ApplyDamage(hero, 10_000)
	parked := hero.Pos
	before := deps.World.Len()

	HandleMove(sess, command(t, packet.C_OPCODE_MOVE, packet.Target{X: 1, Y: 1}), deps)
	HandleSkillQ(sess, command(t, packet.C_OPCODE_SKILL_Q, packet.Target{X: 1, Y: 1}), deps)
	if hero.Hero.Dest == vec.New(1, 1) || hero.Pos != parked {
		t.Error("move applied to dead hero")
	}
	if hero.Hero.Mana != 200 || deps.World.Len() != before {
		t.Error("skill applied to dead hero")
	}
}

func TestDisconnectRemovesHero(t *testing.T) {
	deps := newTestDeps(t)
	sess, _, init := connect(t, deps, 4)
	deps.World.StartRespawn(init.UID, 5*time.Second)

	Disconnect(sess, deps)
	Disconnect(sess, deps)

	if deps.World.Get(init.UID) != nil {
		t.Error("hero still in table")
	}
	if deps.World.RespawnPending(init.UID) || deps.World.PlayerCount() != 0 {
		t.Error("player or respawn timer left behind")
	}
	if deps.Broadcast.Has(sess.ID) || !sess.IsClosed() {
		t.Error("session still broadcasting or open")
	}
}

func TestBuildStateCarriesVariants(t *testing.T) {
	deps := newTestDeps(t)
	hero := deps.World.SpawnHero(world.TeamDire, "Player 2")
	shot := deps.World.SpawnProjectile(hero, vec.New(9, 9), 400, 50, world.ProjectileSkillQ)
	snap := deps.World.Snapshot(3, time.Unix(10, 0))

	st := BuildState(snap)
	if st.Tick != 3 || st.ServerTime != 10 || len(st.Entities) != 8 {
		t.Fatalf("state header = %d %v %d", st.Tick, st.ServerTime, len(st.Entities))
	}
	h := st.Entities[hero.UID]
	if h.Kind != "hero" || h.Team != "dire" || h.Hero == nil || h.Hero.Name != "Player 2" || h.Hero.Level != 1 {
		t.Errorf("hero = %+v", h)
	}
	p := st.Entities[shot.UID]
	if p.Team != "neutral" || p.Projectile == nil || p.Projectile.Kind != "skill_q" || p.Projectile.Owner != hero.UID {
		t.Errorf("projectile = %+v", p)
	}
	if n := st.Entities[1]; n.Kind != "nexus" || n.HP != 2500 || n.Hero != nil || n.Projectile != nil {
		t.Errorf("nexus = %+v", n)
	}
}

func TestServeAppliesCommandsAndBroadcasts(t *testing.T) {
	deps := newTestDeps(t)
	m := NewManager(deps)
	sess, client := newPipe(t, 8)

	served := make(chan struct{})
	go func() {
		m.Serve(sess)
		close(served)
	}()

	var init packet.Init
	readRecord(t, client, packet.S_OPCODE_INIT, &init)

	move, _ := packet.Build(packet.C_OPCODE_MOVE, packet.Target{X: 400, Y: 250})
	if err := net.WriteFrame(client, move); err != nil {
		t.Fatal(err)
	}
	// garbage and unknown opcodes are dropped without closing
	net.WriteFrame(client, []byte{0x7f})
	net.WriteFrame(client, []byte{packet.C_OPCODE_SKILL_Q})
	net.WriteFrame(client, []byte{packet.C_OPCODE_ATTACK})

	deadline := time.Now().Add(2 * time.Second)
	for {
		deps.World.Lock()
		dest := deps.World.Get(init.UID).Hero.Dest
		deps.World.Unlock()
		if dest == vec.New(400, 250) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("move never applied, dest %+v", dest)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deps.World.Lock()
	snap := deps.World.Snapshot(1, time.Now())
	deps.World.Unlock()
	deps.Broadcast.Publish(snap)

	var st packet.State
	readRecord(t, client, packet.S_OPCODE_STATE, &st)
	if h, ok := st.Entities[init.UID]; !ok || h.Hero == nil || h.Hero.Dest != (packet.Point{X: 400, Y: 250}) {
		t.Errorf("STATE hero = %+v", h)
	}

	client.Close()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after peer close")
	}
	if deps.World.Get(init.UID) != nil || m.Count() != 0 {
		t.Error("hero or session survived disconnect")
	}
}

// A client that stops reading falls out of the broadcast set, but its hero
// stays until the read side fails. This mirrors the server's documented
// asymmetry between the send and receive paths.
func TestBroadcastFailureKeepsHero(t *testing.T) {
	deps := newTestDeps(t)
	sess, _, init := connect(t, deps, 1)

	deps.World.Lock()
	snap := deps.World.Snapshot(1, time.Now())
	deps.World.Unlock()

	for i := 0; i < 10 && deps.Broadcast.Has(sess.ID); i++ {
		deps.Broadcast.Publish(snap)
	}
	if deps.Broadcast.Has(sess.ID) {
		t.Fatal("stalled session never left the broadcast set")
	}
	if deps.World.Get(init.UID) == nil || deps.World.PlayerCount() != 1 {
		t.Error("broadcast failure removed the hero")
	}
	if sess.IsClosed() {
		t.Error("broadcast failure closed the session")
	}
}

func TestCloseAllEndsServe(t *testing.T) {
	deps := newTestDeps(t)
	m := NewManager(deps)
	sess, client := newPipe(t, 4)

	served := make(chan struct{})
	go func() {
		m.Serve(sess)
		close(served)
	}()
	var init packet.Init
	readRecord(t, client, packet.S_OPCODE_INIT, &init)

	m.CloseAll()
	waited := make(chan struct{})
	go func() {
		m.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait still blocked after CloseAll")
	}
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve still running after CloseAll")
	}
	if deps.World.PlayerCount() != 0 {
		t.Error("player left behind")
	}

	late, _ := newPipe(t, 4)
	m.Serve(late)
	if !late.IsClosed() || deps.World.PlayerCount() != 0 {
		t.Error("session admitted after CloseAll")
	}
}
