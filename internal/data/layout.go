package data

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayout []byte

// Point is a YAML coordinate pair.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type MapInfo struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	OffMap Point   `yaml:"off_map"` // where dead heroes wait for respawn
}

type Rules struct {
	WaveInterval    time.Duration `yaml:"wave_interval"`
	WaveSize        int           `yaml:"wave_size"`
	RespawnDelay    time.Duration `yaml:"respawn_delay"`
	ArriveDistance  float64       `yaml:"arrive_distance"`
	FirstDynamicUID uint64        `yaml:"first_dynamic_uid"`
}

// TeamLayout holds one side's fixed positions.
type TeamLayout struct {
	Team       string `yaml:"team"` // "radiant" or "dire"
	Spawn      Point  `yaml:"spawn"`
	WaveOrigin Point  `yaml:"wave_origin"`
	WaveStep   Point  `yaml:"wave_step"` // offset between creeps of one wave
	LaneTarget Point  `yaml:"lane_target"`
}

// StructurePlacement is a tower or nexus present from map start.
type StructurePlacement struct {
	UID  uint64  `yaml:"uid"`
	Kind string  `yaml:"kind"` // "tower" or "nexus"
	Team string  `yaml:"team"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// UnitStats are the base numbers for one entity variant. Fields that do not
// apply to a variant stay zero.
type UnitStats struct {
	Radius         float64 `yaml:"radius"`
	MaxHP          float64 `yaml:"max_hp"`
	MaxMana        float64 `yaml:"max_mana"`
	Speed          float64 `yaml:"speed"`
	AttackRange    float64 `yaml:"attack_range"`
	AttackInterval float64 `yaml:"attack_interval"` // seconds between shots
	Damage         float64 `yaml:"damage"`
	HPRegen        float64 `yaml:"hp_regen"`   // per second
	ManaRegen      float64 `yaml:"mana_regen"` // per second
	QCooldown      float64 `yaml:"q_cooldown"`
	WCooldown      float64 `yaml:"w_cooldown"`
	ECooldown      float64 `yaml:"e_cooldown"`
}

type Units struct {
	Hero  UnitStats `yaml:"hero"`
	Creep UnitStats `yaml:"creep"`
	Tower UnitStats `yaml:"tower"`
	Nexus UnitStats `yaml:"nexus"`
}

type SkillStats struct {
	Speed    float64 `yaml:"speed"`
	Damage   float64 `yaml:"damage"`
	ManaCost float64 `yaml:"mana_cost"`
}

type ProjectileStats struct {
	Radius    float64    `yaml:"radius"`
	TTL       float64    `yaml:"ttl"` // seconds
	AutoSpeed float64    `yaml:"auto_speed"`
	SkillQ    SkillStats `yaml:"skill_q"`
}

// Layout is the full static description of an arena.
type Layout struct {
	Map         MapInfo              `yaml:"map"`
	Rules       Rules                `yaml:"rules"`
	Teams       []TeamLayout         `yaml:"teams"`
	Structures  []StructurePlacement `yaml:"structures"`
	Units       Units                `yaml:"units"`
	Projectiles ProjectileStats      `yaml:"projectiles"`
}

// DefaultLayout returns the embedded arena layout.
func DefaultLayout() *Layout {
	l, err := parseLayout(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("embedded layout: %v", err))
	}
	return l
}

// LoadLayout reads a layout from a YAML file. An empty path yields the
// embedded default.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return parseLayout(defaultLayout)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	l, err := parseLayout(raw)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

func parseLayout(raw []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) validate() error {
	if l.Map.Width <= 0 || l.Map.Height <= 0 {
		return fmt.Errorf("map size must be positive, got %vx%v", l.Map.Width, l.Map.Height)
	}
	if l.Team("radiant") == nil || l.Team("dire") == nil {
		return fmt.Errorf("layout needs both radiant and dire teams")
	}
	var maxUID uint64
	seen := make(map[uint64]bool, len(l.Structures))
	for _, s := range l.Structures {
		if s.Kind != "tower" && s.Kind != "nexus" {
			return fmt.Errorf("structure %d: unknown kind %q", s.UID, s.Kind)
		}
		if s.Team != "radiant" && s.Team != "dire" {
			return fmt.Errorf("structure %d: unknown team %q", s.UID, s.Team)
		}
		if s.UID == 0 || seen[s.UID] {
			return fmt.Errorf("structure uid %d is zero or duplicated", s.UID)
		}
		seen[s.UID] = true
		if s.UID > maxUID {
			maxUID = s.UID
		}
	}
	if l.Rules.FirstDynamicUID <= maxUID {
		return fmt.Errorf("first_dynamic_uid %d must exceed structure uid %d", l.Rules.FirstDynamicUID, maxUID)
	}
	if l.Rules.WaveInterval <= 0 || l.Rules.RespawnDelay <= 0 {
		return fmt.Errorf("wave_interval and respawn_delay must be positive")
	}
	if l.Projectiles.TTL <= 0 {
		return fmt.Errorf("projectile ttl must be positive")
	}
	return nil
}

// Team returns the layout for the named team, or nil.
func (l *Layout) Team(name string) *TeamLayout {
	for i := range l.Teams {
		if l.Teams[i].Team == name {
			return &l.Teams[i]
		}
	}
	return nil
}
