package layer

import (
	"time"

	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/hint"
	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/logging"
)

// State is the controller's position in the mode lifecycle.
type State uint8

const (
	// Inactive means the mode is not entered.
	Inactive State = iota

	// Entering means activation is in progress.
	Entering

	// Waiting means the mode is active and armed for the next key.
	// This is a logical state, not a blocked call; the host's
	// dispatch loop drives it.
	Waiting

	// Exiting means teardown is in progress.
	Exiting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Entering:
		return "entering"
	case Waiting:
		return "waiting"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Slot is the process-wide reference to the currently active
// instance. It starts empty, holds at most one controller, and is
// mutated only by controller transitions. It is passed by reference
// to anything needing current-mode awareness.
type Slot struct {
	active *Controller
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

var processSlot = NewSlot()

// DefaultSlot returns the process-wide slot shared by instances that
// do not supply their own. Hosts consult it to route unresolved input
// through the active instance's leave path.
func DefaultSlot() *Slot {
	return processSlot
}

// Active returns the controller currently occupying the slot, or nil.
func (s *Slot) Active() *Controller {
	return s.active
}

// Timeout is the session key-sequence timeout: disabled, enabled with
// the host default length, or enabled with an explicit length.
type Timeout struct {
	Enabled bool
	Len     time.Duration
}

// Config configures a Controller.
type Config struct {
	// Name is the instance name, used in messages and cascade input.
	Name string

	// ID is the unique instance id.
	ID string

	// Table is the compiled head set.
	Table *head.Table

	// Body is the instance's enter prefix; may be empty.
	Body *key.Sequence

	// Hint is the prebuilt display model shown while active.
	Hint *hint.Hint

	// Timeout configures the session key-sequence timeout.
	Timeout Timeout

	// OnEnter runs after session settings are applied, with a mutable
	// scoped accessor.
	OnEnter Callback

	// OnExit runs during teardown, with a disabled accessor.
	OnExit Callback

	// Logger receives transition logs; nil disables logging.
	Logger *logging.Logger
}

// Controller is the runtime state machine of one instance: it governs
// enter, leave and exit transitions, applies and restores session
// host settings, and implements the color-specific foreign-key
// interception.
type Controller struct {
	cfg   Config
	color head.Color
	host  Host
	slot  *Slot
	log   *logging.Logger

	state    State
	snapshot *Snapshot
}

// NewController creates a controller for one instance. A pink
// instance without a cascade collaborator fails with
// ErrMissingCollaborator; the caller must register no bindings in
// that case.
func NewController(cfg Config, host Host, slot *Slot) (*Controller, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Null()
	}
	log = log.WithComponent("layer")

	color := cfg.Table.Color()
	if color == head.Pink && host.Cascade == nil {
		log.Error("instance %q requests pink but no cascade layer is available", cfg.Name)
		return nil, ErrMissingCollaborator
	}

	return &Controller{
		cfg:   cfg,
		color: color,
		host:  host,
		slot:  slot,
		log:   log,
		state: Inactive,
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Color returns the instance's effective color.
func (c *Controller) Color() head.Color {
	return c.color
}

// Name returns the instance name.
func (c *Controller) Name() string {
	return c.cfg.Name
}

// Activate enters the mode: Inactive -> Entering -> Waiting. If
// another instance occupies the slot it is forced through its exit
// path first. Activating the already-active instance is a no-op.
func (c *Controller) Activate() error {
	if c.slot.active == c {
		return nil
	}
	if other := c.slot.active; other != nil {
		if err := other.forceLeave(); err != nil {
			return err
		}
	}

	c.state = Entering

	if c.color == head.Pink {
		// Pink delegates entry entirely to the cascading layer.
		err := c.host.Cascade.Enter(CascadeInput{
			Name:  c.cfg.Name,
			Body:  c.cfg.Body,
			Heads: c.cfg.Table.Heads(),
		})
		if err != nil {
			c.state = Inactive
			return err
		}
		c.slot.active = c
		c.state = Waiting
		return nil
	}

	snap, err := NewSnapshot(c.host.Options,
		OptShowPending, OptTimeout, OptTimeoutLen, OptTTimeout)
	if err != nil {
		c.state = Inactive
		return err
	}
	c.snapshot = snap
	c.slot.active = c

	if err := c.applySessionSettings(); err != nil {
		// A partial write leaves some options already mutated; undo
		// them before abandoning the entry.
		if rerr := c.snapshot.Restore(); rerr != nil {
			c.log.Warn("option restore after failed entry: %v", rerr)
		}
		c.snapshot = nil
		c.state = Inactive
		c.slot.active = nil
		return err
	}

	if c.cfg.OnEnter != nil {
		c.cfg.OnEnter(&SessionOptions{snap: snap, phase: "on_enter"})
	}

	if c.cfg.Hint != nil {
		if err := c.host.Hint.Show(c.cfg.Hint); err != nil {
			c.log.Warn("hint presenter failed: %v", err)
		}
	}

	c.log.Debug("instance %q entered (%s)", c.cfg.Name, c.color)
	c.state = Waiting
	return nil
}

// applySessionSettings adjusts host options for the session through
// the snapshot so they restore at exit.
func (c *Controller) applySessionSettings() error {
	if err := c.snapshot.Set(OptShowPending, false); err != nil {
		return err
	}

	if c.cfg.Timeout.Enabled {
		if err := c.snapshot.Set(OptTimeout, true); err != nil {
			return err
		}
		if c.cfg.Timeout.Len > 0 {
			ms := int(c.cfg.Timeout.Len / time.Millisecond)
			if err := c.snapshot.Set(OptTimeoutLen, ms); err != nil {
				return err
			}
		}
	} else if err := c.snapshot.Set(OptTimeout, false); err != nil {
		return err
	}

	// Terminal escape disambiguation stays on if the host had key
	// timeout enabled before the session.
	ttimeout := c.cfg.Timeout.Enabled
	if prev, ok := c.snapshot.Saved(OptTimeout); ok {
		if b, isBool := prev.(bool); isBool && b {
			ttimeout = true
		}
	}
	return c.snapshot.Set(OptTTimeout, ttimeout)
}

// Leave is the handler behind every wait trigger. Amaranth and teal
// intercept it: if input is already buffered it is a rejected foreign
// key, so warn, discard and stay in Waiting. Otherwise the mode
// exits.
func (c *Controller) Leave() error {
	if c.slot.active != c {
		return ErrNotActive
	}

	if c.color.RejectsForeign() && c.host.Input.HasBufferedInput() {
		rejected := c.host.Input.ConsumeOne()
		c.host.Notify.Warn("key " + rejected.String() + " is not bound in " + c.displayName())
		return nil
	}

	return c.Exit()
}

// Exit is the terminal transition back to Inactive. Snapshotted host
// options are restored before the on_exit callback runs, so the host
// is unwound even if the callback panics. The slot and status line
// are cleared on every path out.
func (c *Controller) Exit() error {
	if c.slot.active != c {
		return ErrNotActive
	}

	c.state = Exiting

	if c.color == head.Pink {
		defer c.teardown()
		return c.host.Cascade.Exit(c.cfg.Name)
	}

	restoreErr := c.snapshot.Restore()
	c.host.Hint.Close()

	defer c.teardown()

	if c.cfg.OnExit != nil {
		c.cfg.OnExit(&SessionOptions{snap: c.snapshot, disabled: true, phase: "on_exit"})
	}

	c.log.Debug("instance %q exited", c.cfg.Name)
	return restoreErr
}

// teardown clears the slot and transient status; it runs even when
// the on_exit callback panics.
func (c *Controller) teardown() {
	c.slot.active = nil
	c.snapshot = nil
	c.state = Inactive
	c.host.Notify.ClearStatus()
}

// forceLeave is the eviction path used when another instance enters
// while this one is active. It bypasses the amaranth/teal rejection
// loop: a forced leave always exits, delegated to the cascading layer
// for pink.
func (c *Controller) forceLeave() error {
	c.log.Debug("instance %q forced out", c.cfg.Name)
	return c.Exit()
}

// Dispatch runs a head from the wait state: the in-mode fire. Exit
// heads run their action and then fully exit; all others run and
// re-arm Waiting.
func (c *Controller) Dispatch(h *head.Head) error {
	if c.slot.active != c {
		return ErrNotActive
	}

	if err := c.RunHead(h); err != nil {
		return err
	}

	if h.Exit {
		return c.Exit()
	}
	c.state = Waiting
	return nil
}

// RunHead executes a head's action without touching mode state. Used
// directly for body-prefixed exit heads, which fire without entering.
func (c *Controller) RunHead(h *head.Head) error {
	switch action := h.Action.(type) {
	case nil:
		return nil
	case head.Keys:
		seq, err := key.ParseSequence(string(action))
		if err != nil {
			return err
		}
		return c.host.Binder.Replay(seq, h.Remap)
	case head.Func:
		action()
		return nil
	case head.Expr:
		produced := action()
		if produced == "" {
			return nil
		}
		seq, err := key.ParseSequence(produced)
		if err != nil {
			return err
		}
		return c.host.Binder.Replay(seq, h.Remap)
	default:
		return nil
	}
}

// WaitContinue is the handler for intermediate prefix bindings: it
// keeps the mode armed while a multi-key head is being typed.
func (c *Controller) WaitContinue() error {
	if c.slot.active != c {
		return ErrNotActive
	}
	c.state = Waiting
	return nil
}

func (c *Controller) displayName() string {
	if c.cfg.Name != "" {
		return c.cfg.Name
	}
	return "hydra"
}
