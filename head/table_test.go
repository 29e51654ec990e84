package head

import (
	"errors"
	"testing"

	"github.com/dshills/hydra/key"
)

func boolPtr(b bool) *bool { return &b }

func mustSeq(t *testing.T, s string) *key.Sequence {
	t.Helper()
	seq, err := key.ParseSequence(s)
	if err != nil {
		t.Fatalf("ParseSequence(%q): %v", s, err)
	}
	return seq
}

func TestCompileSyntheticExit(t *testing.T) {
	specs := []Spec{
		{Lhs: "j", Action: Keys("j")},
		{Lhs: "k", Action: Keys("k")},
	}

	table, err := Compile(specs, ForeignNone, false, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (synthetic exit appended)", table.Len())
	}

	synthetic := 0
	for _, h := range table.Heads() {
		if !h.Synthetic {
			continue
		}
		synthetic++
		if h.Lhs != "<Esc>" {
			t.Errorf("synthetic lhs = %q, want <Esc>", h.Lhs)
		}
		if !h.Exit {
			t.Error("synthetic head must exit")
		}
		if h.Color != Blue {
			t.Errorf("synthetic color = %v, want Blue for foreign_keys=none", h.Color)
		}
		if h.Desc.Text != "exit" {
			t.Errorf("synthetic desc = %q, want \"exit\"", h.Desc.Text)
		}
	}
	if synthetic != 1 {
		t.Errorf("synthetic head count = %d, want 1", synthetic)
	}
}

func TestCompileSyntheticExitTealUnderWarn(t *testing.T) {
	table, err := Compile([]Spec{{Lhs: "j", Action: Keys("j")}}, ForeignWarn, false, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	h := table.Lookup(mustSeq(t, "<Esc>"))
	if h == nil {
		t.Fatal("synthetic <Esc> head not found")
	}
	if h.Color != Teal {
		t.Errorf("synthetic color = %v, want Teal for foreign_keys=warn", h.Color)
	}
}

func TestCompileNoSyntheticWhenExitHeadPresent(t *testing.T) {
	specs := []Spec{
		{Lhs: "j", Action: Keys("j")},
		{Lhs: "q", Options: Options{Exit: boolPtr(true)}},
	}

	table, err := Compile(specs, ForeignNone, false, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2 (no synthetic head)", table.Len())
	}
	if table.Lookup(mustSeq(t, "<Esc>")) != nil {
		t.Error("unexpected synthetic <Esc> head")
	}
}

func TestCompileNoSyntheticWhenDefaultExit(t *testing.T) {
	table, err := Compile([]Spec{{Lhs: "j", Action: Keys("j")}}, ForeignNone, true, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1 (default exit satisfies the rule)", table.Len())
	}
}

func TestCompilePerHeadExitOverride(t *testing.T) {
	// A blue head inside a red instance.
	specs := []Spec{
		{Lhs: "j", Action: Keys("j")},
		{Lhs: "q", Options: Options{Exit: boolPtr(true)}},
	}

	table, err := Compile(specs, ForeignNone, false, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	if table.Color() != Red {
		t.Errorf("instance color = %v, want Red", table.Color())
	}

	j := table.Lookup(mustSeq(t, "j"))
	if j.Color != Red || j.Exit {
		t.Errorf("j = {color %v, exit %v}, want inherited {Red, false}", j.Color, j.Exit)
	}

	q := table.Lookup(mustSeq(t, "q"))
	if q.Color != Blue || !q.Exit {
		t.Errorf("q = {color %v, exit %v}, want overridden {Blue, true}", q.Color, q.Exit)
	}
}

func TestCompileWarnDerived(t *testing.T) {
	table, err := Compile([]Spec{{Lhs: "j", Action: Keys("j")}}, ForeignWarn, false, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	j := table.Lookup(mustSeq(t, "j"))
	if j.Color != Amaranth || !j.Warn {
		t.Errorf("j = {color %v, warn %v}, want {Amaranth, true}", j.Color, j.Warn)
	}
}

func TestCompileValidation(t *testing.T) {
	tests := []struct {
		name  string
		specs []Spec
	}{
		{
			name:  "empty lhs",
			specs: []Spec{{Lhs: ""}},
		},
		{
			name: "duplicate lhs",
			specs: []Spec{
				{Lhs: "j", Action: Keys("j")},
				{Lhs: "j", Action: Keys("gj")},
			},
		},
		{
			name:  "expr flag without expression callback",
			specs: []Spec{{Lhs: "j", Action: Keys("j"), Options: Options{Expr: true}}},
		},
	}

	for _, tt := range tests {
		_, err := Compile(tt.specs, ForeignNone, false, ColorUnset)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: error = %v, want *ValidationError", tt.name, err)
		}
	}
}

func TestCompileExprHead(t *testing.T) {
	specs := []Spec{
		{Lhs: "n", Action: Expr(func() string { return "nzz" }), Options: Options{Expr: true}},
	}
	table, err := Compile(specs, ForeignNone, false, ColorUnset)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	h := table.Lookup(mustSeq(t, "n"))
	expr, ok := h.Action.(Expr)
	if !ok {
		t.Fatalf("action type = %T, want Expr", h.Action)
	}
	if got := expr(); got != "nzz" {
		t.Errorf("expr() = %q, want %q", got, "nzz")
	}
}

func TestCompileExplicitColorWins(t *testing.T) {
	// Explicit teal overrides whatever the flags would derive.
	table, err := Compile([]Spec{{Lhs: "j", Action: Keys("j")}}, ForeignNone, false, Teal)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if table.Color() != Teal {
		t.Errorf("instance color = %v, want explicit Teal", table.Color())
	}
}
