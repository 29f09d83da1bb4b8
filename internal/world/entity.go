package world

import (
	"fmt"

	"github.com/lanewars/server/internal/data"
	"github.com/lanewars/server/internal/vec"
)

// Kind tags the variant carried by an Entity.
type Kind uint8

const (
	KindHero Kind = iota + 1
	KindCreep
	KindTower
	KindNexus
	KindProjectile
)

func (k Kind) String() string {
	switch k {
	case KindHero:
		return "hero"
	case KindCreep:
		return "creep"
	case KindTower:
		return "tower"
	case KindNexus:
		return "nexus"
	case KindProjectile:
		return "projectile"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type Team int8

const (
	TeamNeutral Team = -1 // projectiles
	TeamRadiant Team = 0
	TeamDire    Team = 1
)

func (t Team) String() string {
	switch t {
	case TeamRadiant:
		return "radiant"
	case TeamDire:
		return "dire"
	case TeamNeutral:
		return "neutral"
	default:
		return fmt.Sprintf("Team(%d)", int8(t))
	}
}

// ParseTeam maps a layout team name to a Team.
func ParseTeam(name string) (Team, error) {
	switch name {
	case "radiant":
		return TeamRadiant, nil
	case "dire":
		return TeamDire, nil
	}
	return TeamNeutral, fmt.Errorf("unknown team %q", name)
}

// ProjectileKind tells clients which effect to draw.
type ProjectileKind string

const (
	ProjectileAuto   ProjectileKind = "auto"
	ProjectileSkillQ ProjectileKind = "skill_q"
)

// Attack is the auto-attack capability shared by heroes, creeps and towers.
// Cooldown counts down in seconds and may dip below zero before it is checked.
type Attack struct {
	Range    float64
	Interval float64
	Cooldown float64
	Damage   float64
}

type Hero struct {
	Name      string
	Mana      float64
	MaxMana   float64
	Speed     float64
	Dest      vec.Vec2
	HPRegen   float64
	ManaRegen float64
	Attack    Attack

	QCooldown, WCooldown, ECooldown          float64
	QMaxCooldown, WMaxCooldown, EMaxCooldown float64

	// Progression counters. Nothing consumes them yet.
	Level int
	Exp   int
	Gold  int
}

type Creep struct {
	Waypoints []vec.Vec2 // head is the current destination
	Speed     float64
	Attack    Attack
}

type Tower struct {
	Attack Attack
}

type Projectile struct {
	Owner  uint64 // weak: resolve through State.Get, the owner may be gone
	Target vec.Vec2
	Speed  float64
	Damage float64
	TTL    float64 // seconds left
	Kind   ProjectileKind
}

// Entity is the common header plus exactly one variant payload selected by
// Kind. Nexus carries no payload.
type Entity struct {
	UID      uint64
	Kind     Kind
	Pos      vec.Vec2
	Radius   float64
	Team     Team
	HP       float64
	MaxHP    float64
	Alive    bool
	ToDelete bool

	Hero       *Hero
	Creep      *Creep
	Tower      *Tower
	Projectile *Projectile
}

func newBase(uid uint64, kind Kind, pos vec.Vec2, team Team, radius, maxHP float64) *Entity {
	return &Entity{
		UID:    uid,
		Kind:   kind,
		Pos:    pos,
		Radius: radius,
		Team:   team,
		HP:     maxHP,
		MaxHP:  maxHP,
		Alive:  true,
	}
}

func NewHero(uid uint64, pos vec.Vec2, team Team, name string, st data.UnitStats) *Entity {
	e := newBase(uid, KindHero, pos, team, st.Radius, st.MaxHP)
	e.Hero = &Hero{
		Name:         name,
		Mana:         st.MaxMana,
		MaxMana:      st.MaxMana,
		Speed:        st.Speed,
		Dest:         pos,
		HPRegen:      st.HPRegen,
		ManaRegen:    st.ManaRegen,
		Attack:       Attack{Range: st.AttackRange, Interval: st.AttackInterval, Damage: st.Damage},
		QMaxCooldown: st.QCooldown,
		WMaxCooldown: st.WCooldown,
		EMaxCooldown: st.ECooldown,
		Level:        1,
	}
	return e
}

func NewCreep(uid uint64, pos vec.Vec2, team Team, waypoint vec.Vec2, st data.UnitStats) *Entity {
	e := newBase(uid, KindCreep, pos, team, st.Radius, st.MaxHP)
	e.Creep = &Creep{
		Waypoints: []vec.Vec2{waypoint},
		Speed:     st.Speed,
		Attack:    Attack{Range: st.AttackRange, Interval: st.AttackInterval, Damage: st.Damage},
	}
	return e
}

func NewTower(uid uint64, pos vec.Vec2, team Team, st data.UnitStats) *Entity {
	e := newBase(uid, KindTower, pos, team, st.Radius, st.MaxHP)
	e.Tower = &Tower{
		Attack: Attack{Range: st.AttackRange, Interval: st.AttackInterval, Damage: st.Damage},
	}
	return e
}

func NewNexus(uid uint64, pos vec.Vec2, team Team, st data.UnitStats) *Entity {
	return newBase(uid, KindNexus, pos, team, st.Radius, st.MaxHP)
}

func NewProjectile(uid uint64, from vec.Vec2, owner uint64, target vec.Vec2, speed, damage, ttl, radius float64, kind ProjectileKind) *Entity {
	e := newBase(uid, KindProjectile, from, TeamNeutral, radius, 1)
	e.Projectile = &Projectile{
		Owner:  owner,
		Target: target,
		Speed:  speed,
		Damage: damage,
		TTL:    ttl,
		Kind:   kind,
	}
	return e
}

// Attacker returns the auto-attack block for combat-capable variants and nil
// for nexus and projectiles.
func (e *Entity) Attacker() *Attack {
	switch e.Kind {
	case KindHero:
		return &e.Hero.Attack
	case KindCreep:
		return &e.Creep.Attack
	case KindTower:
		return &e.Tower.Attack
	}
	return nil
}

// TakeDamage subtracts amount from HP, clamping at zero. It reports true only
// on the call that moves the entity from alive to dead; damage to an entity
// that is already dead is ignored.
func (e *Entity) TakeDamage(amount float64) bool {
	if !e.Alive {
		return false
	}
	if amount < 0 {
		amount = 0
	}
	e.HP -= amount
	if e.HP > 0 {
		return false
	}
	e.HP = 0
	e.Alive = false
	return true
}

// Clone returns a deep copy that shares no memory with e.
func (e *Entity) Clone() Entity {
	c := *e
	if e.Hero != nil {
		h := *e.Hero
		c.Hero = &h
	}
	if e.Creep != nil {
		cr := *e.Creep
		cr.Waypoints = append([]vec.Vec2(nil), e.Creep.Waypoints...)
		c.Creep = &cr
	}
	if e.Tower != nil {
		t := *e.Tower
		c.Tower = &t
	}
	if e.Projectile != nil {
		p := *e.Projectile
		c.Projectile = &p
	}
	return c
}
