package plan

import (
	"strings"
	"testing"

	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/key"
)

func boolPtr(b bool) *bool { return &b }

func compile(t *testing.T, specs []head.Spec, fk head.ForeignKeys, exit bool) *head.Table {
	t.Helper()
	table, err := head.Compile(specs, fk, exit, head.ColorUnset)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return table
}

func bindingSeqs(p *Plan, kind Kind) []string {
	var out []string
	for _, b := range p.ByKind(kind) {
		out = append(out, b.Seq.String())
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestBuildRedScenario(t *testing.T) {
	// Instance with body "<leader>a", heads j, k and an exit head q,
	// default red. q already exits, so no synthetic <Esc>.
	table := compile(t, []head.Spec{
		{Lhs: "j", Action: head.Keys("j")},
		{Lhs: "k", Action: head.Keys("k")},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	if table.Len() != 3 {
		t.Fatalf("table len = %d, want 3 (no synthetic head)", table.Len())
	}

	body := key.MustParseSequence("<leader>a")
	p := Build("test-id", body, table, false, []string{"n"})

	if got := bindingSeqs(p, KindBodyEnter); len(got) != 1 || got[0] != "<leader>a" {
		t.Errorf("body bindings = %v, want [<leader>a]", got)
	}

	enter := bindingSeqs(p, KindEnterFire)
	for _, want := range []string{"<leader>aj", "<leader>ak"} {
		if !contains(enter, want) {
			t.Errorf("enter-and-fire bindings %v missing %q", enter, want)
		}
	}

	// The exit head still gets a body binding, but one that fires
	// without entering the mode.
	if fire := bindingSeqs(p, KindFire); !contains(fire, "<leader>aq") {
		t.Errorf("fire bindings = %v, want <leader>aq", fire)
	}

	inMode := bindingSeqs(p, KindInMode)
	for _, want := range []string{"j", "k", "q"} {
		if !contains(inMode, want) {
			t.Errorf("in-mode bindings %v missing %q", inMode, want)
		}
	}

	// Single-key heads produce no wait continuations.
	if n := p.Count(KindWaitContinue); n != 0 {
		t.Errorf("wait continuations = %d, want 0", n)
	}
}

func TestBuildBindingCounts(t *testing.T) {
	// Heads: "dd" (1 proper prefix "d"), "<C-w>hj" (2 proper
	// prefixes), "x" (none). Deduplicated continuation count is 3.
	table := compile(t, []head.Spec{
		{Lhs: "dd", Action: head.Keys("dd")},
		{Lhs: "<C-w>hj", Action: head.Func(func() {})},
		{Lhs: "x", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	body := key.MustParseSequence("<leader>w")
	p := Build("test-id", body, table, false, nil)

	if n := p.Count(KindWaitContinue); n != 3 {
		t.Errorf("wait continuations = %d, want 3", n)
	}
	if n := p.Count(KindInMode); n != table.Len() {
		t.Errorf("in-mode bindings = %d, want one per head (%d)", n, table.Len())
	}
	if n := p.Count(KindBodyEnter); n != 1 {
		t.Errorf("body bindings = %d, want 1", n)
	}

	waits := bindingSeqs(p, KindWaitContinue)
	for _, want := range []string{"d", "<C-w>", "<C-w>h"} {
		if !contains(waits, want) {
			t.Errorf("wait continuations %v missing %q", waits, want)
		}
	}
}

func TestBuildDeduplicatesSharedPrefixes(t *testing.T) {
	table := compile(t, []head.Spec{
		{Lhs: "gg", Action: head.Keys("gg")},
		{Lhs: "gj", Action: head.Keys("gj")},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	p := Build("test-id", key.MustParseSequence("<leader>g"), table, false, nil)

	// "g" is shared by gg and gj: one continuation, not two.
	if n := p.Count(KindWaitContinue); n != 1 {
		t.Errorf("wait continuations = %d, want 1", n)
	}
}

func TestBuildPrefixMatchingHeadSkipped(t *testing.T) {
	// "d" is both a head and a prefix of "dd"; the in-mode binding
	// already covers it, so no separate continuation is generated.
	table := compile(t, []head.Spec{
		{Lhs: "d", Action: head.Keys("x")},
		{Lhs: "dd", Action: head.Keys("dd")},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	p := Build("test-id", key.MustParseSequence("<leader>d"), table, false, nil)

	if n := p.Count(KindWaitContinue); n != 0 {
		t.Errorf("wait continuations = %d, want 0: %v", n, bindingSeqs(p, KindWaitContinue))
	}
}

func TestBuildInvokeOnBody(t *testing.T) {
	table := compile(t, []head.Spec{
		{Lhs: "j", Action: head.Keys("j")},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	p := Build("test-id", key.MustParseSequence("<leader>a"), table, true, nil)

	if n := p.Count(KindEnterFire) + p.Count(KindFire); n != 0 {
		t.Errorf("enter-and-fire bindings = %d, want 0 with invoke_on_body", n)
	}
	if n := p.Count(KindBodyEnter); n != 1 {
		t.Errorf("body bindings = %d, want 1", n)
	}
}

func TestBuildPrivateHead(t *testing.T) {
	table := compile(t, []head.Spec{
		{Lhs: "j", Action: head.Keys("j")},
		{Lhs: "p", Action: head.Keys("p"), Options: head.Options{Private: true}},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	p := Build("test-id", key.MustParseSequence("<leader>a"), table, false, nil)

	all := append(bindingSeqs(p, KindEnterFire), bindingSeqs(p, KindFire)...)
	if contains(all, "<leader>ap") {
		t.Error("private head must not produce an enter-and-fire binding")
	}
	if !contains(bindingSeqs(p, KindInMode), "p") {
		t.Error("private head must still be bound as a continuation")
	}
}

func TestBuildBodylessInstance(t *testing.T) {
	table := compile(t, []head.Spec{
		{Lhs: "j", Action: head.Keys("j")},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	p := Build("test-id", key.NewSequence(), table, true, nil)

	if n := p.Count(KindBodyEnter); n != 0 {
		t.Errorf("body bindings = %d, want 0 for bodyless instance", n)
	}
}

func TestBindingIdentityEmbedsInstance(t *testing.T) {
	table := compile(t, []head.Spec{
		{Lhs: "j", Action: head.Keys("j")},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	body := key.MustParseSequence("<leader>a")
	a := Build("instance-a", body, table, false, nil)
	b := Build("instance-b", body, table, false, nil)

	seen := make(map[string]bool)
	for _, id := range a.IDs() {
		if !strings.HasPrefix(id, "instance-a/") {
			t.Errorf("id %q does not embed its instance", id)
		}
		seen[id] = true
	}
	for _, id := range b.IDs() {
		if seen[id] {
			t.Errorf("id %q collides across instances", id)
		}
	}
}

func TestBuildPerHeadModeOverride(t *testing.T) {
	table := compile(t, []head.Spec{
		{Lhs: "j", Action: head.Keys("j"), Options: head.Options{Mode: []string{"x"}}},
		{Lhs: "q", Options: head.Options{Exit: boolPtr(true)}},
	}, head.ForeignNone, false)

	p := Build("test-id", key.MustParseSequence("<leader>a"), table, false, []string{"n"})

	for _, b := range p.ByKind(KindInMode) {
		if b.Seq.String() != "j" {
			continue
		}
		if len(b.Modes) != 1 || b.Modes[0] != "x" {
			t.Errorf("j modes = %v, want [x]", b.Modes)
		}
	}
}
