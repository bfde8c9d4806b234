package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/system"
)

// Engine wraps a single gopher-lua VM that defines systems in Lua.
// Single-goroutine access only (game loop).
type Engine struct {
	vm      *lua.LState
	log     *zap.Logger
	world   *ecs.World
	systems []system.System
}

// NewEngine creates a Lua engine bound to world and loads every script in
// scriptsDir. An empty scriptsDir loads nothing.
func NewEngine(scriptsDir string, world *ecs.World, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if world == nil {
		world = ecs.NewWorld(nil, nil, log)
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, world: world}
	e.registerAPI()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
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

// DoString runs a chunk of Lua in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Systems returns the systems registered by scripts, in registration order.
func (e *Engine) Systems() []system.System {
	return append([]system.System(nil), e.systems...)
}

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) registerAPI() {
	e.vm.SetGlobal("register_system", e.vm.NewFunction(e.luaRegisterSystem))
	e.vm.SetGlobal("entity_create", e.vm.NewFunction(e.luaEntityCreate))
	e.vm.SetGlobal("entity_destroy", e.vm.NewFunction(e.luaEntityDestroy))
	e.vm.SetGlobal("entity_alive", e.vm.NewFunction(e.luaEntityAlive))
	e.vm.SetGlobal("entity_enabled", e.vm.NewFunction(e.luaEntityEnabled))
	e.vm.SetGlobal("entity_set_enabled", e.vm.NewFunction(e.luaEntitySetEnabled))
	e.vm.SetGlobal("entity_count", e.vm.NewFunction(e.luaEntityCount))
}

// register_system{name=, before=, after=, sets=, phase=, update=function(dt) end}
func (e *Engine) luaRegisterSystem(L *lua.LState) int {
	t := L.CheckTable(1)

	name, ok := t.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		L.ArgError(1, "system needs a string name")
		return 0
	}
	s := &luaSystem{
		engine: e,
		name:   string(name),
		deps: system.Dependencies{
			Before: stringList(t.RawGetString("before")),
			After:  stringList(t.RawGetString("after")),
			Sets:   stringList(t.RawGetString("sets")),
		},
	}
	switch fn := t.RawGetString("update").(type) {
	case *lua.LFunction:
		s.update = fn
	case *lua.LNilType:
	default:
		L.ArgError(1, "update must be a function")
		return 0
	}

	if ph, ok := t.RawGetString("phase").(lua.LString); ok {
		phase, err := system.ParsePhase(string(ph))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		e.systems = append(e.systems, &phasedLuaSystem{luaSystem: s, phase: phase})
	} else {
		e.systems = append(e.systems, s)
	}
	e.log.Debug("lua system registered", zap.String("name", s.name))
	return 0
}

// stringList reads a Lua array of strings; a lone string is a one-element list.
func stringList(v lua.LValue) []string {
	switch v := v.(type) {
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		out := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			if s, ok := v.RawGetInt(i).(lua.LString); ok {
				out = append(out, string(s))
			}
		}
		return out
	default:
		return nil
	}
}

func checkHandle(L *lua.LState, n int) ecs.EntityHandle {
	return ecs.EntityHandle(uint32(L.CheckNumber(n)))
}

// entity_create() -> handle | nil, err
func (e *Engine) luaEntityCreate(L *lua.LState) int {
	h, err := e.world.CreateEntity()
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(h))
	return 1
}

// entity_destroy(h) -> bool; destruction happens at the next cleanup flush.
func (e *Engine) luaEntityDestroy(L *lua.LState) int {
	L.Push(lua.LBool(e.world.MarkForDestruction(checkHandle(L, 1))))
	return 1
}

func (e *Engine) luaEntityAlive(L *lua.LState) int {
	L.Push(lua.LBool(e.world.Alive(checkHandle(L, 1))))
	return 1
}

func (e *Engine) luaEntityEnabled(L *lua.LState) int {
	L.Push(lua.LBool(e.world.Enabled(checkHandle(L, 1))))
	return 1
}

func (e *Engine) luaEntitySetEnabled(L *lua.LState) int {
	h := checkHandle(L, 1)
	L.Push(lua.LBool(e.world.SetEnabled(h, L.ToBool(2))))
	return 1
}

func (e *Engine) luaEntityCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Pool().AliveCount()))
	return 1
}

// luaSystem runs a Lua update function with dt in seconds. Script errors are
// logged and do not stop the tick.
type luaSystem struct {
	engine *Engine
	name   string
	deps   system.Dependencies
	update *lua.LFunction
}

func (s *luaSystem) Name() string                      { return s.name }
func (s *luaSystem) Dependencies() system.Dependencies { return s.deps }

func (s *luaSystem) Update(dt time.Duration) {
	if s.update == nil {
		return
	}
	if err := s.engine.vm.CallByParam(lua.P{
		Fn:      s.update,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(dt.Seconds())); err != nil {
		s.engine.log.Error("lua system update error", zap.String("system", s.name), zap.Error(err))
	}
}

type phasedLuaSystem struct {
	*luaSystem
	phase system.Phase
}

func (s *phasedLuaSystem) Phase() system.Phase { return s.phase }
