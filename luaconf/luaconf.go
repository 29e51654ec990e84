// Package luaconf builds hydra instances from Lua tables, the
// construction surface the system was designed around. A script
// returns an array of definition tables; head actions may be key
// strings, Lua functions or nil.
package luaconf

import (
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/hydra"
	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/layer"
	"github.com/dshills/hydra/logging"
)

// ErrBadScript reports a script whose result is not the expected
// array of definition tables.
var ErrBadScript = errors.New("invalid hydra script")

// Loader evaluates definition scripts in one Lua state. Configs built
// from function actions keep a reference to the state, so the loader
// must outlive the instances it produced.
type Loader struct {
	state *lua.LState
	log   *logging.Logger
}

// NewLoader creates a loader with a fresh Lua state.
func NewLoader(log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Null()
	}
	return &Loader{
		state: lua.NewState(),
		log:   log.WithComponent("luaconf"),
	}
}

// Close releases the Lua state. Instances with function actions must
// be destroyed first.
func (l *Loader) Close() {
	l.state.Close()
}

// LoadFile evaluates a script file and converts its result.
func (l *Loader) LoadFile(path string) ([]hydra.Config, error) {
	if err := l.state.DoFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadScript, err)
	}
	return l.takeResult()
}

// LoadString evaluates script source and converts its result.
func (l *Loader) LoadString(src string) ([]hydra.Config, error) {
	if err := l.state.DoString(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadScript, err)
	}
	return l.takeResult()
}

func (l *Loader) takeResult() ([]hydra.Config, error) {
	top := l.state.Get(-1)
	l.state.Pop(1)

	root, ok := top.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: script must return a table, got %s", ErrBadScript, top.Type())
	}

	var cfgs []hydra.Config
	var convErr error
	root.ForEach(func(_, item lua.LValue) {
		if convErr != nil {
			return
		}
		def, ok := item.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("%w: definition must be a table, got %s", ErrBadScript, item.Type())
			return
		}
		cfg, err := l.convertDefinition(def)
		if err != nil {
			convErr = err
			return
		}
		cfgs = append(cfgs, cfg)
	})
	if convErr != nil {
		return nil, convErr
	}
	return cfgs, nil
}

func (l *Loader) convertDefinition(def *lua.LTable) (hydra.Config, error) {
	cfg := hydra.Config{
		Name: tableString(def, "name"),
		Body: tableString(def, "body"),
		Hint: tableString(def, "hint"),
	}

	if modes, ok := def.RawGetString("mode").(*lua.LTable); ok {
		modes.ForEach(func(_, m lua.LValue) {
			cfg.Mode = append(cfg.Mode, m.String())
		})
	} else if m, ok := def.RawGetString("mode").(lua.LString); ok {
		cfg.Mode = []string{string(m)}
	}

	if opts, ok := def.RawGetString("config").(*lua.LTable); ok {
		if err := l.applyOptions(&cfg, opts); err != nil {
			return cfg, err
		}
	}

	heads, ok := def.RawGetString("heads").(*lua.LTable)
	if !ok {
		return cfg, fmt.Errorf("%w: %s: heads table missing", ErrBadScript, cfg.Name)
	}

	var headErr error
	heads.ForEach(func(_, item lua.LValue) {
		if headErr != nil {
			return
		}
		tuple, ok := item.(*lua.LTable)
		if !ok {
			headErr = fmt.Errorf("%w: %s: head must be a {lhs, action, opts} table", ErrBadScript, cfg.Name)
			return
		}
		spec, err := l.convertHead(tuple)
		if err != nil {
			headErr = err
			return
		}
		cfg.Heads = append(cfg.Heads, spec)
	})
	if headErr != nil {
		return cfg, headErr
	}
	return cfg, nil
}

func (l *Loader) applyOptions(cfg *hydra.Config, opts *lua.LTable) error {
	if s := tableString(opts, "color"); s != "" {
		c, err := head.ParseColor(s)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadScript, cfg.Name, err)
		}
		cfg.Color = c
	}
	if s := tableString(opts, "foreign_keys"); s != "" {
		fk, err := head.ParseForeignKeys(s)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadScript, cfg.Name, err)
		}
		cfg.ForeignKeys = fk
	}
	cfg.Exit = tableBool(opts, "exit")
	cfg.InvokeOnBody = tableBool(opts, "invoke_on_body")

	switch timeout := opts.RawGetString("timeout").(type) {
	case lua.LBool:
		cfg.Timeout = layer.Timeout{Enabled: bool(timeout)}
	case lua.LNumber:
		cfg.Timeout = layer.Timeout{
			Enabled: true,
			Len:     time.Duration(float64(timeout)) * time.Millisecond,
		}
	}

	if fn, ok := opts.RawGetString("on_enter").(*lua.LFunction); ok {
		cfg.OnEnter = l.wrapCallback("on_enter", fn)
	}
	if fn, ok := opts.RawGetString("on_exit").(*lua.LFunction); ok {
		cfg.OnExit = l.wrapCallback("on_exit", fn)
	}
	return nil
}

// convertHead validates one {lhs, action, opts} tuple. The lhs must
// be a string; the action a string, function or nil; a desc of false
// hides the head and true is meaningless.
func (l *Loader) convertHead(tuple *lua.LTable) (head.Spec, error) {
	var spec head.Spec

	lhs := tuple.RawGetInt(1)
	s, ok := lhs.(lua.LString)
	if !ok {
		return spec, &head.ValidationError{Lhs: lhs.String(), Msg: "lhs must be a string"}
	}
	spec.Lhs = string(s)

	switch action := tuple.RawGetInt(2).(type) {
	case lua.LString:
		spec.Action = head.Keys(action)
	case *lua.LFunction:
		spec.Action = l.wrapAction(spec.Lhs, action)
	case *lua.LNilType, nil:
	default:
		return spec, &head.ValidationError{Lhs: spec.Lhs, Msg: "action must be a string, function or nil"}
	}

	opts, ok := tuple.RawGetInt(3).(*lua.LTable)
	if !ok {
		return spec, nil
	}

	switch desc := opts.RawGetString("desc").(type) {
	case lua.LString:
		spec.Options.Desc = head.DescText(string(desc))
	case lua.LBool:
		if bool(desc) {
			return spec, &head.ValidationError{Lhs: spec.Lhs, Msg: "desc must be a string or false"}
		}
		spec.Options.Desc = head.DescHidden()
	}

	if exit, ok := opts.RawGetString("exit").(lua.LBool); ok {
		v := bool(exit)
		spec.Options.Exit = &v
	}
	spec.Options.Private = tableBool(opts, "private")
	spec.Options.Remap = tableBool(opts, "remap")
	if modes, ok := opts.RawGetString("mode").(*lua.LTable); ok {
		modes.ForEach(func(_, m lua.LValue) {
			spec.Options.Mode = append(spec.Options.Mode, m.String())
		})
	}
	return spec, nil
}

// wrapAction turns a Lua function into a head action. Errors inside
// the function are logged, not propagated; a failing head must not
// break the mode.
func (l *Loader) wrapAction(lhs string, fn *lua.LFunction) head.Func {
	return func() {
		err := l.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		if err != nil {
			l.log.Error("head %q action: %v", lhs, err)
		}
	}
}

func (l *Loader) wrapCallback(name string, fn *lua.LFunction) layer.Callback {
	return func(*layer.SessionOptions) {
		err := l.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		if err != nil {
			l.log.Error("%s callback: %v", name, err)
		}
	}
}

func tableString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func tableBool(t *lua.LTable, key string) bool {
	if b, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return false
}
