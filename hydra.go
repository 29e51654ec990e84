// Package hydra provides modal key layers over a host editor: a body
// prefix enters a transient mode in which a set of short head bindings
// stays live until the mode exits. Behavior is governed by the
// instance color, which combines the foreign-key policy with the
// default exit flag.
package hydra

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/hint"
	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/layer"
	"github.com/dshills/hydra/logging"
	"github.com/dshills/hydra/plan"
)

// Config is the construction surface of one instance.
type Config struct {
	// Name identifies the instance in hints and messages.
	Name string

	// Mode lists the host editor modes to bind in; defaults to
	// normal mode.
	Mode []string

	// Body is the enter prefix, for example "<leader>a". Empty means
	// a bodyless instance reachable only through Activate.
	Body string

	// Heads defines the head set.
	Heads []head.Spec

	// Debug enables transition logging to stderr when no Logger is
	// supplied.
	Debug bool

	// Exit makes every head exit by default unless it overrides.
	Exit bool

	// ForeignKeys sets the policy for keys no head claims.
	ForeignKeys head.ForeignKeys

	// Color, when set, overrides whatever ForeignKeys and Exit would
	// derive. Pink requires a cascade collaborator on the host.
	Color head.Color

	// OnEnter runs after the mode is entered, with a mutable
	// session-scoped settings accessor.
	OnEnter layer.Callback

	// OnExit runs during exit, after host settings are restored. Its
	// accessor is read-only.
	OnExit layer.Callback

	// Timeout configures the in-mode key-sequence timeout.
	Timeout layer.Timeout

	// InvokeOnBody makes the body enter the mode without firing any
	// head. Forced on for bodyless and exit-by-default instances.
	InvokeOnBody bool

	// Buffer restricts all bindings to one host buffer.
	Buffer layer.BufferScope

	// Hint is an optional template; underscore-wrapped head keys like
	// "_j_" become highlighted hint entries. Empty builds the default
	// head listing.
	Hint string

	// Logger receives instance logs; nil with Debug off disables them.
	Logger *logging.Logger
}

// ConfigConflict records a disagreement between an explicit Color and
// the ForeignKeys/Exit flags. It is resolved by precedence, color
// wins, and surfaced only in debug logs.
type ConfigConflict struct {
	Explicit head.Color
	Derived  head.Color
}

func (c *ConfigConflict) Error() string {
	return fmt.Sprintf("explicit color %s overrides flags deriving %s", c.Explicit, c.Derived)
}

// ValidationError is the fatal construction error for malformed heads.
type ValidationError = head.ValidationError

// ErrMissingCollaborator re-exports the layer sentinel for callers
// matching construction failures.
var ErrMissingCollaborator = layer.ErrMissingCollaborator

// Instance is one constructed hydra: a compiled head table, its
// binding plan registered with the host, and the mode controller
// driving the session lifecycle.
type Instance struct {
	id    string
	cfg   Config
	table *head.Table
	plan  *plan.Plan
	ctrl  *layer.Controller
	host  layer.Host
	log   *logging.Logger
}

// New builds an instance and registers its bindings with the host. A
// ValidationError means the head set is malformed; construction
// registers nothing in that case. Pink without a cascade collaborator
// fails with ErrMissingCollaborator, also registering nothing.
func New(cfg Config, host layer.Host) (*Instance, error) {
	return newInstance(cfg, host, layer.DefaultSlot())
}

func newInstance(cfg Config, host layer.Host, slot *layer.Slot) (*Instance, error) {
	log := cfg.Logger
	if log == nil {
		if cfg.Debug {
			log = logging.New(os.Stderr, logging.LevelDebug)
		} else {
			log = logging.Null()
		}
	}
	log = log.WithComponent("hydra")

	fk := cfg.ForeignKeys
	defaultExit := cfg.Exit
	if cfg.Color != head.ColorUnset {
		if derived := head.ColorFromOptions(fk, defaultExit); derived != cfg.Color {
			conflict := &ConfigConflict{Explicit: cfg.Color, Derived: derived}
			log.Debug("instance %q: %v", cfg.Name, conflict)
		}
		if canonFK, canonExit, err := head.OptionsFromColor(cfg.Color); err == nil {
			fk = canonFK
			defaultExit = canonExit
		}
	}

	body, err := key.ParseSequence(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", cfg.Body, err)
	}

	invokeOnBody := cfg.InvokeOnBody
	if body.IsEmpty() || defaultExit {
		invokeOnBody = true
	}

	table, err := head.Compile(cfg.Heads, fk, defaultExit, cfg.Color)
	if err != nil {
		return nil, err
	}

	var hn *hint.Hint
	if cfg.Hint != "" {
		hn = hint.FromTemplate(cfg.Name, cfg.Hint, table.Heads())
	} else {
		hn = hint.New(cfg.Name, table.Heads())
	}

	id := uuid.NewString()

	ctrl, err := layer.NewController(layer.Config{
		Name:    cfg.Name,
		ID:      id,
		Table:   table,
		Body:    body,
		Hint:    hn,
		Timeout: cfg.Timeout,
		OnEnter: cfg.OnEnter,
		OnExit:  cfg.OnExit,
		Logger:  log,
	}, host, slot)
	if err != nil {
		return nil, err
	}

	modes := cfg.Mode
	if len(modes) == 0 {
		modes = []string{"n"}
	}

	inst := &Instance{
		id:    id,
		cfg:   cfg,
		table: table,
		plan:  plan.Build(id, body, table, invokeOnBody, modes),
		ctrl:  ctrl,
		host:  host,
		log:   log,
	}

	if err := inst.register(); err != nil {
		return nil, err
	}
	log.Debug("instance %q (%s) registered %d bindings", cfg.Name, table.Color(), len(inst.plan.Bindings))
	return inst, nil
}

// register binds the full plan with the host. A failure part way
// through unwinds every binding already registered.
func (in *Instance) register() error {
	var bound []plan.Binding
	for _, b := range in.plan.Bindings {
		action := in.handler(b)
		opts := layer.BindOptions{
			Buffer: in.cfg.Buffer,
			Desc:   in.bindDesc(b),
			Nowait: true,
		}
		for _, mode := range b.Modes {
			if err := in.host.Binder.Bind(mode, b.Seq, b.ID, action, opts); err != nil {
				in.unbind(bound)
				return fmt.Errorf("bind %s in mode %s: %w", b.Seq, mode, err)
			}
		}
		bound = append(bound, b)
	}
	return nil
}

// handler maps a binding to its controller transition.
func (in *Instance) handler(b plan.Binding) func() {
	h := b.Head
	switch b.Kind {
	case plan.KindBodyEnter:
		return func() { in.report(in.ctrl.Activate()) }
	case plan.KindEnterFire:
		return func() {
			if err := in.ctrl.Activate(); err != nil {
				in.report(err)
				return
			}
			in.report(in.ctrl.Dispatch(h))
		}
	case plan.KindFire:
		// Body-prefixed exit head: fires without entering the mode.
		return func() { in.report(in.ctrl.RunHead(h)) }
	case plan.KindInMode:
		return func() { in.passThrough(b, in.ctrl.Dispatch(h)) }
	case plan.KindWaitContinue:
		return func() { in.passThrough(b, in.ctrl.WaitContinue()) }
	default:
		return func() {}
	}
}

// report surfaces handler errors.
func (in *Instance) report(err error) {
	if err != nil {
		in.log.Error("instance %q: %v", in.cfg.Name, err)
	}
}

// passThrough handles in-mode bindings firing while the instance is
// inactive: the keys are replayed without remapping so the host sees
// them as ordinary input.
func (in *Instance) passThrough(b plan.Binding, err error) {
	if errors.Is(err, layer.ErrNotActive) {
		in.report(in.host.Binder.Replay(b.Seq, false))
		return
	}
	in.report(err)
}

func (in *Instance) bindDesc(b plan.Binding) string {
	if b.Head != nil && b.Head.Desc.Text != "" {
		return b.Head.Desc.Text
	}
	if in.cfg.Name != "" {
		return in.cfg.Name
	}
	return "hydra"
}

func (in *Instance) unbind(bindings []plan.Binding) {
	for _, b := range bindings {
		for _, mode := range b.Modes {
			if err := in.host.Binder.Unbind(mode, b.Seq, b.ID); err != nil {
				in.log.Warn("unbind %s in mode %s: %v", b.Seq, mode, err)
			}
		}
	}
}

// ID returns the unique instance id embedded in all binding
// identities.
func (in *Instance) ID() string { return in.id }

// Name returns the configured instance name.
func (in *Instance) Name() string { return in.cfg.Name }

// Color returns the effective instance color after precedence
// resolution.
func (in *Instance) Color() head.Color { return in.table.Color() }

// Plan exposes the binding plan, mainly for hosts that route layered
// bindings themselves.
func (in *Instance) Plan() *plan.Plan { return in.plan }

// Active reports whether this instance currently holds the mode.
func (in *Instance) Active() bool { return in.ctrl.State() != layer.Inactive }

// Activate enters the mode programmatically, exactly as pressing the
// body would.
func (in *Instance) Activate() error { return in.ctrl.Activate() }

// Leave runs the regular leave path, subject to the amaranth/teal
// foreign-key interception.
func (in *Instance) Leave() error { return in.ctrl.Leave() }

// Exit leaves the mode unconditionally, restoring host settings.
func (in *Instance) Exit() error { return in.ctrl.Exit() }

// Destroy exits the mode if active and removes every binding this
// instance registered. The instance must not be used afterwards.
func (in *Instance) Destroy() error {
	var exitErr error
	if in.Active() {
		exitErr = in.ctrl.Exit()
	}
	in.unbind(in.plan.Bindings)
	in.log.Debug("instance %q destroyed", in.cfg.Name)
	return exitErr
}
