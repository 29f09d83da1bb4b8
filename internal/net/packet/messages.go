package packet

import (
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Init is the S_OPCODE_INIT body.
type Init struct {
	Version int        `msgpack:"v"`
	UID     uint64     `msgpack:"uid"`
	MapSize [2]float64 `msgpack:"map_size"`
	Match   string     `msgpack:"match"`
}

// State is the S_OPCODE_STATE body: the whole entity table keyed by uid.
type State struct {
	Tick       uint64                 `msgpack:"tick"`
	ServerTime float64                `msgpack:"server_time"`
	Entities   map[uint64]EntityState `msgpack:"entities"`
}

// EncodeMsgpack writes Entities in ascending uid order so equal states encode
// to equal bytes. The encoder's sorted-keys mode only covers string keys.
func (s State) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(3); err != nil {
		return err
	}
	if err := enc.EncodeString("tick"); err != nil {
		return err
	}
	if err := enc.EncodeUint(s.Tick); err != nil {
		return err
	}
	if err := enc.EncodeString("server_time"); err != nil {
		return err
	}
	if err := enc.EncodeFloat64(s.ServerTime); err != nil {
		return err
	}
	if err := enc.EncodeString("entities"); err != nil {
		return err
	}
	if s.Entities == nil {
		return enc.EncodeNil()
	}

	uids := make([]uint64, 0, len(s.Entities))
	for uid := range s.Entities {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	if err := enc.EncodeMapLen(len(uids)); err != nil {
		return err
	}
	for _, uid := range uids {
		if err := enc.EncodeUint(uid); err != nil {
			return err
		}
		if err := enc.Encode(s.Entities[uid]); err != nil {
			return err
		}
	}
	return nil
}

type Point struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

type EntityState struct {
	UID    uint64  `msgpack:"uid"`
	Kind   string  `msgpack:"kind"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Radius float64 `msgpack:"radius"`
	Team   string  `msgpack:"team"`
	HP     float64 `msgpack:"hp"`
	MaxHP  float64 `msgpack:"max_hp"`
	Alive  bool    `msgpack:"alive"`

	Hero       *HeroState       `msgpack:"hero,omitempty"`
	Projectile *ProjectileState `msgpack:"projectile,omitempty"`
}

type HeroState struct {
	Name      string  `msgpack:"name"`
	Mana      float64 `msgpack:"mana"`
	MaxMana   float64 `msgpack:"max_mana"`
	Dest      Point   `msgpack:"dest"`
	QCooldown float64 `msgpack:"q_cd"`
	WCooldown float64 `msgpack:"w_cd"`
	ECooldown float64 `msgpack:"e_cd"`
	Level     int     `msgpack:"level"`
	Exp       int     `msgpack:"exp"`
	Gold      int     `msgpack:"gold"`
}

type ProjectileState struct {
	Owner  uint64  `msgpack:"owner"`
	Target Point   `msgpack:"target"`
	Kind   string  `msgpack:"kind"`
	TTL    float64 `msgpack:"ttl"`
}

// Target is the body of C_OPCODE_MOVE and C_OPCODE_SKILL_Q.
type Target struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}
