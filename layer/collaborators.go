package layer

import (
	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/hint"
	"github.com/dshills/hydra/key"
)

// BufferScope names the buffer a binding is registered in. Global
// binds everywhere; positive values are concrete host buffer ids.
type BufferScope int

// Global is the buffer scope for bindings visible in every buffer.
const Global BufferScope = 0

// BindOptions carries the per-binding settings handed to the host.
type BindOptions struct {
	// Buffer restricts the binding to one buffer.
	Buffer BufferScope

	// Desc is a human-readable description for host binding listings.
	Desc string

	// Nowait asks the host not to wait for longer mappings sharing
	// this prefix.
	Nowait bool
}

// KeyBinder registers and removes key bindings with the host editor
// and feeds synthetic input.
type KeyBinder interface {
	// Bind registers action under the sequence in the given host
	// mode. The id embeds the owning instance and must be passed to
	// Unbind to remove exactly this binding.
	Bind(mode string, seq *key.Sequence, id string, action func(), opts BindOptions) error

	// Unbind removes a binding previously registered with id.
	Unbind(mode string, seq *key.Sequence, id string) error

	// Replay feeds a key sequence as if typed. With remap set the
	// replayed keys may trigger further host mappings.
	Replay(seq *key.Sequence, remap bool) error
}

// InputPeek checks for input the host has already buffered. Used only
// by the amaranth/teal leave interception; HasBufferedInput must not
// block.
type InputPeek interface {
	HasBufferedInput() bool
	ConsumeOne() key.Event
}

// OptionsStore reads and writes host editor settings. Session-scoped
// mutation goes through a Snapshot so it can be restored on exit.
type OptionsStore interface {
	Get(name string) (any, error)
	Set(name string, value any) error
}

// HintPresenter renders the head listing while a mode is active.
type HintPresenter interface {
	Show(h *hint.Hint) error
	Close()
}

// Notifier surfaces one-line messages to the user.
type Notifier interface {
	Warn(message string)
	ClearStatus()
}

// CascadeInput is the structure a pink instance hands to the external
// cascading layer, which then owns entry and exit entirely.
type CascadeInput struct {
	Name  string
	Body  *key.Sequence
	Heads []*head.Head
}

// Cascade is the external cascading-mode-layer collaborator pink
// instances delegate to. Its absence is a MissingCollaborator error
// at construction, not a silent no-op.
type Cascade interface {
	Enter(input CascadeInput) error
	Exit(name string) error
}

// Host bundles the collaborators one hydra session depends on.
// Cascade may be nil unless a pink instance is constructed.
type Host struct {
	Binder  KeyBinder
	Input   InputPeek
	Options OptionsStore
	Hint    HintPresenter
	Notify  Notifier
	Cascade Cascade
}

// Host option names applied for the duration of a session. The host
// adapter maps them onto its real settings.
const (
	// OptShowPending is the "show pending command" indicator,
	// disabled while a mode is active.
	OptShowPending = "showpending"

	// OptTimeout enables key-sequence disambiguation timeout.
	OptTimeout = "timeout"

	// OptTimeoutLen is the timeout length in milliseconds.
	OptTimeoutLen = "timeoutlen"

	// OptTTimeout keeps terminal escape-sequence disambiguation
	// working independently of OptTimeout.
	OptTTimeout = "ttimeout"
)
