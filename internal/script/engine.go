// Package script runs Lua trigger scripts attached to mobiles and
// evaluates the guard conditions of ability effect links.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/model"
)

// handlerGlobal is the function a trigger script must define.
const handlerGlobal = "on_command"

// SendFunc delivers a message from a script to an actor.
type SendFunc func(actorID, text string)

// Engine owns one Lua state. Lua states are not goroutine-safe, so every
// call into the state holds mu.
type Engine struct {
	mu       sync.Mutex
	state    *lua.State
	triggers map[string]string // trigger name → global holding its handler
	send     SendFunc
}

// NewEngine creates an engine with the standard Lua libraries and the
// send/log helpers. send may be nil.
func NewEngine(send SendFunc) *Engine {
	e := &Engine{
		state:    lua.NewState(),
		triggers: make(map[string]string),
		send:     send,
	}
	lua.OpenLibraries(e.state)
	e.state.Register("send", e.luaSend)
	e.state.Register("log", luaLog)
	return e
}

func (e *Engine) luaSend(l *lua.State) int {
	actorID := lua.CheckString(l, 1)
	text := lua.CheckString(l, 2)
	if e.send != nil {
		e.send(actorID, text)
	}
	return 0
}

func luaLog(l *lua.State) int {
	slog.Info("script", "message", lua.CheckString(l, 1))
	return 0
}

// Load compiles a trigger script and registers its on_command handler
// under name. Loading the same name again replaces the handler.
func (e *Engine) Load(name, source string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return errs.InvalidArgumentf("trigger name is empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.state
	defer l.SetTop(l.Top())
	l.PushNil()
	l.SetGlobal(handlerGlobal)

	if err := lua.DoString(l, source); err != nil {
		return errs.WrapWithCodef(err, errs.CodeParse, "loading trigger %q", name)
	}

	l.Global(handlerGlobal)
	if !l.IsFunction(-1) {
		return errs.InvalidArgumentf("trigger %q does not define %s", name, handlerGlobal)
	}
	global := triggerGlobal(name)
	l.SetGlobal(global)
	l.PushNil()
	l.SetGlobal(handlerGlobal)

	e.triggers[name] = global
	slog.Debug("trigger loaded", "trigger", name)
	return nil
}

func triggerGlobal(name string) string {
	return "__trigger_" + strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
}

// Triggers returns the loaded trigger names.
func (e *Engine) Triggers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.triggers))
}

// DispatchCommand runs owner's trigger for a command typed by actor.
// The handler gets (owner, actor, command, argument), the first two as
// tables with id, name and level. Returning "halt" or true consumes the
// command; nil, false and "continue" let it through.
func (e *Engine) DispatchCommand(_ context.Context, owner *model.Mobile, actor model.Actor, cmd, argument string) (command.TriggerOutcome, error) {
	name := strings.ToLower(owner.Trigger())

	e.mu.Lock()
	defer e.mu.Unlock()

	global, ok := e.triggers[name]
	if !ok {
		return command.TriggerError, errs.NotFoundf("trigger %q is not loaded", name)
	}

	l := e.state
	top := l.Top()
	defer l.SetTop(top)

	l.Global(global)
	pushActor(l, owner)
	pushActor(l, actor)
	l.PushString(cmd)
	l.PushString(argument)
	if err := l.ProtectedCall(4, 1, 0); err != nil {
		return command.TriggerError, fmt.Errorf("trigger %q: %w", name, err)
	}

	switch {
	case l.IsNil(-1):
		return command.TriggerContinue, nil
	case l.IsBoolean(-1):
		if l.ToBoolean(-1) {
			return command.TriggerHalt, nil
		}
		return command.TriggerContinue, nil
	}
	s, _ := l.ToString(-1)
	switch strings.ToLower(s) {
	case "halt":
		return command.TriggerHalt, nil
	case "continue":
		return command.TriggerContinue, nil
	}
	return command.TriggerError, errs.InvalidStatef("trigger %q returned %q", name, s)
}

func pushActor(l *lua.State, a model.Actor) {
	l.NewTable()
	l.PushString(a.ID())
	l.SetField(-2, "id")
	l.PushString(a.Name())
	l.SetField(-2, "name")
	l.PushInteger(int(a.Level()))
	l.SetField(-2, "level")
	l.PushString(a.Position().String())
	l.SetField(-2, "position")
}

// EvaluateCondition evaluates a boolean Lua expression with vars exposed
// as globals. Lua truthiness applies: only nil and false are false.
func (e *Engine) EvaluateCondition(expr string, vars map[string]int64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.state
	top := l.Top()
	defer l.SetTop(top)

	if err := e.evalLocked(expr, vars); err != nil {
		return false, err
	}
	return l.ToBoolean(-1), nil
}

// Evaluate evaluates a numeric Lua expression with vars exposed as globals.
func (e *Engine) Evaluate(expr string, vars map[string]int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.state
	top := l.Top()
	defer l.SetTop(top)

	if err := e.evalLocked(expr, vars); err != nil {
		return 0, err
	}
	n, ok := l.ToNumber(-1)
	if !ok {
		return 0, errs.InvalidArgumentf("expression %q is not a number", expr)
	}
	return int64(n), nil
}

// evalLocked leaves the value of expr on the stack. The chunk runs in its
// own environment holding vars, falling back to the globals for reads, so
// vars never leak into later calls or shadow script globals.
func (e *Engine) evalLocked(expr string, vars map[string]int64) error {
	l := e.state
	if err := lua.LoadString(l, "return ("+expr+")"); err != nil {
		return errs.WrapWithCodef(err, errs.CodeParse, "condition %q", expr)
	}

	l.CreateTable(0, len(vars))
	for name, v := range vars {
		l.PushInteger(int(v))
		l.SetField(-2, name)
	}
	l.CreateTable(0, 1)
	l.PushGlobalTable()
	l.SetField(-2, "__index")
	l.SetMetaTable(-2)
	if _, ok := lua.SetUpValue(l, -2, 1); !ok {
		return errs.Internalf("condition %q: chunk has no environment", expr)
	}

	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return errs.WrapWithCodef(err, errs.CodeInvalidArgument, "condition %q", expr)
	}
	return nil
}
