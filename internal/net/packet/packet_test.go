package packet

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap/zaptest"
)

func TestBuildAndReadTarget(t *testing.T) {
	data, err := Build(C_OPCODE_SKILL_Q, Target{X: 500, Y: 250.5})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := NewReader(data)
	if r.Opcode() != C_OPCODE_SKILL_Q {
		t.Fatalf("opcode = 0x%02X", r.Opcode())
	}
	got, err := r.ReadTarget()
	if err != nil {
		t.Fatalf("ReadTarget: %v", err)
	}
	if got.X != 500 || got.Y != 250.5 {
		t.Errorf("target = %+v", got)
	}
}

func TestReadTargetRejectsBadBodies(t *testing.T) {
	nan, _ := Build(C_OPCODE_MOVE, Target{X: math.NaN(), Y: 1})
	garbage := []byte{C_OPCODE_MOVE, 0xc1} // 0xc1 is never used by msgpack
	wrongShape, _ := Build(C_OPCODE_MOVE, "north")

	tests := []struct {
		name string
		data []byte
	}{
		{"empty body", []byte{C_OPCODE_MOVE}},
		{"reserved byte", garbage},
		{"string body", wrongShape},
		{"nan", nan},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewReader(tc.data).ReadTarget(); !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestStateEncodesEntitiesByUID(t *testing.T) {
	body := State{
		Tick:       7,
		ServerTime: 1.5,
		Entities: map[uint64]EntityState{
			1001: {UID: 1001, Kind: "hero", Team: "radiant", HP: 500, MaxHP: 500, Alive: true,
				Hero: &HeroState{Name: "Player 1", Mana: 180, QCooldown: 5}},
			2: {UID: 2, Kind: "tower", Team: "radiant"},
		},
	}
	a, err := Build(S_OPCODE_STATE, body)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(a[1:], &raw); err != nil {
		t.Fatalf("decode as generic map: %v", err)
	}
	if len(raw) != 3 || raw["tick"] == nil || raw["server_time"] == nil || raw["entities"] == nil {
		t.Fatalf("missing top-level keys: %v", raw)
	}

	var back State
	if err := NewReader(a).Decode(&back); err != nil {
		t.Fatal(err)
	}
	h := back.Entities[1001]
	if h.Hero == nil || h.Hero.Name != "Player 1" || h.Hero.Mana != 180 {
		t.Errorf("hero = %+v", h)
	}
	if back.Entities[2].Hero != nil {
		t.Error("tower carries a hero block")
	}
}

func TestStateEncodingIsStable(t *testing.T) {
	body := State{Tick: 3, Entities: map[uint64]EntityState{}}
	for uid := uint64(1); uid <= 20; uid++ {
		body.Entities[uid*37%101] = EntityState{UID: uid * 37 % 101, Kind: "creep", HP: float64(uid)}
	}
	first, err := Build(S_OPCODE_STATE, body)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		again, _ := Build(S_OPCODE_STATE, body)
		if string(again) != string(first) {
			t.Fatalf("encoding %d differs from the first", i)
		}
	}

	var raw map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(first[1:], &raw); err != nil {
		t.Fatal(err)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw["entities"]))
	n, err := dec.DecodeMapLen()
	if err != nil || n != 20 {
		t.Fatalf("entities map len = %d, %v", n, err)
	}
	var prev uint64
	for i := 0; i < n; i++ {
		uid, err := dec.DecodeUint64()
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && uid <= prev {
			t.Fatalf("uid %d follows %d", uid, prev)
		}
		prev = uid
		if err := dec.Skip(); err != nil {
			t.Fatal(err)
		}
	}

	empty, _ := Build(S_OPCODE_STATE, State{Tick: 1})
	var back State
	if err := NewReader(empty).Decode(&back); err != nil || back.Tick != 1 || back.Entities != nil {
		t.Errorf("nil entities round trip = %+v, %v", back, err)
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zaptest.NewLogger(t))
	var calls int
	reg.Register(C_OPCODE_ATTACK, []SessionState{StateActive}, func(sess any, r *Reader) { calls++ })
	reg.Register(C_OPCODE_MOVE, []SessionState{StateActive}, func(sess any, r *Reader) { panic("boom") })

	if err := reg.Dispatch(nil, StateActive, []byte{C_OPCODE_ATTACK}); err != nil || calls != 1 {
		t.Fatalf("dispatch: err=%v calls=%d", err, calls)
	}
	if err := reg.Dispatch(nil, StateConnecting, []byte{C_OPCODE_ATTACK}); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("wrong state: %v", err)
	}
	if err := reg.Dispatch(nil, StateActive, []byte{0x7f}); !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("unknown: %v", err)
	}
	if err := reg.Dispatch(nil, StateActive, nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("empty: %v", err)
	}
	if err := reg.Dispatch(nil, StateActive, []byte{C_OPCODE_MOVE}); err == nil {
		t.Error("panic not turned into an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}
