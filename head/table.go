package head

import (
	"github.com/dshills/hydra/key"
)

// Table is the compiled head set of one instance: resolved heads in
// display order with lookup by lhs.
type Table struct {
	heads []*Head
	byLhs map[string]*Head

	// foreignKeys is the instance policy the heads were compiled
	// against.
	foreignKeys ForeignKeys

	// color is the instance's effective color.
	color Color
}

// Compile resolves a list of raw head specs against the instance
// policy. It fails with a *ValidationError on duplicate or malformed
// input. A synthetic <Esc> exit head is appended unless the set
// already contains an exit head or the instance default exit is true.
func Compile(specs []Spec, fk ForeignKeys, defaultExit bool, instanceColor Color) (*Table, error) {
	if instanceColor == ColorUnset {
		instanceColor = ColorFromOptions(fk, defaultExit)
	}

	t := &Table{
		heads:       make([]*Head, 0, len(specs)+1),
		byLhs:       make(map[string]*Head, len(specs)+1),
		foreignKeys: fk,
		color:       instanceColor,
	}

	hasExit := defaultExit
	for i, spec := range specs {
		h, err := resolve(spec, i, fk, defaultExit, instanceColor)
		if err != nil {
			return nil, err
		}
		if _, dup := t.byLhs[h.Seq.String()]; dup {
			return nil, validationf(spec.Lhs, "duplicate head")
		}
		t.heads = append(t.heads, h)
		t.byLhs[h.Seq.String()] = h
		if h.Exit {
			hasExit = true
		}
	}

	if !hasExit {
		esc := syntheticExit(fk, len(t.heads))
		if _, dup := t.byLhs[esc.Seq.String()]; !dup {
			t.heads = append(t.heads, esc)
			t.byLhs[esc.Seq.String()] = esc
		}
	}

	return t, nil
}

// resolve turns one raw spec into a compiled head.
func resolve(spec Spec, index int, fk ForeignKeys, defaultExit bool, instanceColor Color) (*Head, error) {
	if spec.Lhs == "" {
		return nil, validationf("", "head %d has an empty key sequence", index)
	}

	seq, err := key.ParseSequence(spec.Lhs)
	if err != nil {
		return nil, validationf(spec.Lhs, "unparseable key sequence: %v", err)
	}
	if seq.IsEmpty() {
		return nil, validationf(spec.Lhs, "empty key sequence")
	}

	switch spec.Action.(type) {
	case nil, Keys, Func, Expr:
	default:
		return nil, validationf(spec.Lhs, "action must be a key sequence or a callback")
	}
	if spec.Options.Expr {
		if _, ok := spec.Action.(Expr); !ok {
			return nil, validationf(spec.Lhs, "expr head requires an expression callback")
		}
	}

	exit := defaultExit
	color := instanceColor
	if spec.Options.Exit != nil {
		exit = *spec.Options.Exit
		// A per-head exit override recomputes the effective color
		// from the instance's foreign-key policy.
		color = ColorFromOptions(fk, exit)
	}

	return &Head{
		Lhs:     spec.Lhs,
		Seq:     seq,
		Action:  spec.Action,
		Exit:    exit,
		Private: spec.Options.Private,
		Warn:    color.RejectsForeign(),
		Remap:   spec.Options.Remap,
		Color:   color,
		Desc:    spec.Options.Desc,
		Mode:    spec.Options.Mode,
		Index:   index,
	}, nil
}

// syntheticExit builds the auto-appended <Esc> head.
func syntheticExit(fk ForeignKeys, index int) *Head {
	color := Blue
	if fk == ForeignWarn {
		color = Teal
	}
	return &Head{
		Lhs:       "<Esc>",
		Seq:       key.MustParseSequence("<Esc>"),
		Exit:      true,
		Warn:      color.RejectsForeign(),
		Color:     color,
		Desc:      DescText("exit"),
		Index:     index,
		Synthetic: true,
	}
}

// Heads returns the compiled heads in display order.
func (t *Table) Heads() []*Head {
	return t.heads
}

// Len returns the number of compiled heads, synthetic included.
func (t *Table) Len() int {
	return len(t.heads)
}

// Lookup finds the head whose lhs matches the given sequence.
func (t *Table) Lookup(seq *key.Sequence) *Head {
	if seq.IsEmpty() {
		return nil
	}
	return t.byLhs[seq.String()]
}

// Color returns the instance's effective color.
func (t *Table) Color() Color {
	return t.color
}

// ForeignKeys returns the instance policy the table was compiled
// against.
func (t *Table) ForeignKeys() ForeignKeys {
	return t.foreignKeys
}

// HasExit returns true if any head (synthetic included) exits.
func (t *Table) HasExit() bool {
	for _, h := range t.heads {
		if h.Exit {
			return true
		}
	}
	return false
}
