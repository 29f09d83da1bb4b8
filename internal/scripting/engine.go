package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const damageFunc = "calc_projectile_damage"

// Engine wraps a single gopher-lua VM for combat formulas.
// Single-goroutine access only: callers hold the world lock.
type Engine struct {
	vm        *lua.LState
	log       *zap.Logger
	hasDamage bool
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory yields an engine with no hooks.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "combat"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	_, e.hasDamage = vm.GetGlobal(damageFunc).(*lua.LFunction)
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasDamageHook reports whether calc_projectile_damage is defined.
func (e *Engine) HasDamageHook() bool { return e.hasDamage }

// DamageContext holds pre-packed data for one projectile hit.
type DamageContext struct {
	AttackerKind   string // "" when the owner is gone
	TargetKind     string
	ProjectileKind string
	Base           float64
	TargetHP       float64
	TargetMaxHP    float64
}

// CalcDamage calls calc_projectile_damage. Without the hook, or when the
// script fails or returns something other than a number, the base damage is
// used.
func (e *Engine) CalcDamage(ctx DamageContext) float64 {
	if !e.hasDamage {
		return ctx.Base
	}
	t := e.vm.NewTable()
	t.RawSetString("attacker", lua.LString(ctx.AttackerKind))
	t.RawSetString("target", lua.LString(ctx.TargetKind))
	t.RawSetString("projectile", lua.LString(ctx.ProjectileKind))
	t.RawSetString("damage", lua.LNumber(ctx.Base))
	t.RawSetString("target_hp", lua.LNumber(ctx.TargetHP))
	t.RawSetString("target_max_hp", lua.LNumber(ctx.TargetMaxHP))

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.GetGlobal(damageFunc),
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_projectile_damage error", zap.Error(err))
		return ctx.Base
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_projectile_damage returned non-number", zap.String("type", ret.Type().String()))
		return ctx.Base
	}
	if n < 0 {
		return 0
	}
	return float64(n)
}

func (e *Engine) Close() {
	e.vm.Close()
}
