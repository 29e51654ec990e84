package head

import (
	"github.com/dshills/hydra/key"
)

// Action is the work a head performs when dispatched. Exactly one of
// the variants below implements it; a nil Action is a valid no-op
// head (pure navigation within the mode).
type Action interface {
	isAction()
}

// Keys is a static key sequence replayed as if typed.
type Keys string

func (Keys) isAction() {}

// Func is a callback invoked at dispatch.
type Func func()

func (Func) isAction() {}

// Expr is evaluated lazily at dispatch time; the returned sequence is
// replayed in place of the head (expression-mapping semantics).
type Expr func() string

func (Expr) isAction() {}

// Desc is a head's hint description. The zero value means no
// description was given; Hidden is the explicit "keep this head out
// of the hint" marker.
type Desc struct {
	Text   string
	Hidden bool
}

// DescText returns a Desc with the given text.
func DescText(s string) Desc {
	return Desc{Text: s}
}

// DescHidden returns the explicit no-description marker.
func DescHidden() Desc {
	return Desc{Hidden: true}
}

// Options are the per-head settings of a raw head tuple. This is a
// closed record: loaders validate unknown or mistyped fields before
// constructing it.
type Options struct {
	// Exit overrides the instance's default exit behavior for this
	// head. Nil means inherit.
	Exit *bool

	// Private heads are bound only as continuations inside the mode,
	// never as fresh enter-mode bindings from the bare body.
	Private bool

	// Expr marks the action as an expression mapping; it requires an
	// Expr action variant.
	Expr bool

	// Remap allows the replayed sequence to trigger further mappings
	// in the host.
	Remap bool

	// Desc is the hint description.
	Desc Desc

	// Mode restricts the head to specific host editor modes. Empty
	// means the instance's modes.
	Mode []string
}

// Spec is one raw head tuple as supplied by the user: a left-hand
// side, an optional action and options.
type Spec struct {
	Lhs     string
	Action  Action
	Options Options
}

// Head is a compiled head: the resolved action plus its effective
// policy flags and the display record used by the hint.
type Head struct {
	// Lhs is the head's key notation as given.
	Lhs string

	// Seq is the tokenized left-hand side.
	Seq *key.Sequence

	// Action is the resolved action; nil for no-op heads.
	Action Action

	// Exit heads leave the mode after running.
	Exit bool

	// Private heads never get an enter-and-fire binding.
	Private bool

	// Warn is derived from the effective color: the head participates
	// in the reject-with-warning loop.
	Warn bool

	// Remap allows host-side remapping of replayed output.
	Remap bool

	// Color is the effective per-head color.
	Color Color

	// Desc is the hint description.
	Desc Desc

	// Mode restricts the head to specific host modes.
	Mode []string

	// Index is the display order position, from input order.
	Index int

	// Synthetic marks the auto-appended exit head.
	Synthetic bool
}

// NoOp returns true when the head has no action to run.
func (h *Head) NoOp() bool {
	return h.Action == nil
}
