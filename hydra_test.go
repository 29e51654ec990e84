package hydra

import (
	"errors"
	"testing"

	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/hint"
	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/layer"
	"github.com/dshills/hydra/plan"
)

// hostBinder stores registered actions so tests can simulate key
// presses by invoking them.
type hostBinder struct {
	actions  map[string]func() // mode + " " + seq
	ids      map[string]string
	replayed []string
}

func newHostBinder() *hostBinder {
	return &hostBinder{
		actions: make(map[string]func()),
		ids:     make(map[string]string),
	}
}

func (b *hostBinder) bindKey(mode string, seq *key.Sequence) string {
	return mode + " " + seq.String()
}

func (b *hostBinder) Bind(mode string, seq *key.Sequence, id string, action func(), opts layer.BindOptions) error {
	k := b.bindKey(mode, seq)
	b.actions[k] = action
	b.ids[k] = id
	return nil
}

func (b *hostBinder) Unbind(mode string, seq *key.Sequence, id string) error {
	k := b.bindKey(mode, seq)
	delete(b.actions, k)
	delete(b.ids, k)
	return nil
}

func (b *hostBinder) Replay(seq *key.Sequence, remap bool) error {
	b.replayed = append(b.replayed, seq.String())
	return nil
}

// press invokes the action bound under the sequence in normal mode.
func (b *hostBinder) press(t *testing.T, seq string) {
	t.Helper()
	action, ok := b.actions["n "+seq]
	if !ok {
		t.Fatalf("no binding for %q", seq)
	}
	action()
}

type hostInput struct{ buffered []key.Event }

func (i *hostInput) HasBufferedInput() bool { return len(i.buffered) > 0 }

func (i *hostInput) ConsumeOne() key.Event {
	ev := i.buffered[0]
	i.buffered = i.buffered[1:]
	return ev
}

type hostStore struct{ values map[string]any }

func newHostStore() *hostStore {
	return &hostStore{values: map[string]any{
		layer.OptShowPending: true,
		layer.OptTimeout:     true,
		layer.OptTimeoutLen:  1000,
		layer.OptTTimeout:    true,
	}}
}

func (s *hostStore) Get(name string) (any, error) { return s.values[name], nil }

func (s *hostStore) Set(name string, value any) error {
	s.values[name] = value
	return nil
}

type hostHint struct {
	shown  *hint.Hint
	closed bool
}

func (h *hostHint) Show(hn *hint.Hint) error {
	h.shown = hn
	h.closed = false
	return nil
}

func (h *hostHint) Close() { h.closed = true }

type hostNotify struct{ warnings []string }

func (n *hostNotify) Warn(msg string) { n.warnings = append(n.warnings, msg) }
func (n *hostNotify) ClearStatus()    {}

type testHost struct {
	binder *hostBinder
	input  *hostInput
	store  *hostStore
	hint   *hostHint
	notify *hostNotify
	host   layer.Host
}

func newTestHost() *testHost {
	th := &testHost{
		binder: newHostBinder(),
		input:  &hostInput{},
		store:  newHostStore(),
		hint:   &hostHint{},
		notify: &hostNotify{},
	}
	th.host = layer.Host{
		Binder:  th.binder,
		Input:   th.input,
		Options: th.store,
		Hint:    th.hint,
		Notify:  th.notify,
	}
	return th
}

func newTestInstance(t *testing.T, cfg Config, th *testHost) *Instance {
	t.Helper()
	inst, err := newInstance(cfg, th.host, layer.NewSlot())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return inst
}

func exitTrue() *bool {
	b := true
	return &b
}

func scrollConfig() Config {
	return Config{
		Name: "scroll",
		Body: "<leader>a",
		Heads: []head.Spec{
			{Lhs: "j", Action: head.Keys("j")},
			{Lhs: "k", Action: head.Keys("k")},
			{Lhs: "q", Options: head.Options{Exit: exitTrue()}},
		},
	}
}

func TestScrollScenario(t *testing.T) {
	// Body <leader>a with heads j, k and exiting q: press the body,
	// then j twice, then q. j runs both times; after q nothing is
	// active and host settings are back.
	th := newTestHost()
	inst := newTestInstance(t, scrollConfig(), th)

	if inst.Color() != head.Red {
		t.Fatalf("color = %v, want Red", inst.Color())
	}

	th.binder.press(t, "<leader>a")
	if !inst.Active() {
		t.Fatal("instance not active after body press")
	}
	if th.hint.shown == nil {
		t.Error("hint not shown")
	}

	th.binder.press(t, "j")
	th.binder.press(t, "j")
	th.binder.press(t, "q")

	if inst.Active() {
		t.Error("instance still active after exit head")
	}
	if len(th.binder.replayed) != 2 {
		t.Errorf("replayed = %v, want j twice", th.binder.replayed)
	}
	if got := th.store.values[layer.OptShowPending]; got != true {
		t.Errorf("%s = %v, want restored true", layer.OptShowPending, got)
	}
	if !th.hint.closed {
		t.Error("hint not closed after exit")
	}
}

func TestBodyPlusHeadEntersAndFires(t *testing.T) {
	th := newTestHost()
	inst := newTestInstance(t, scrollConfig(), th)

	th.binder.press(t, "<leader>aj")

	if !inst.Active() {
		t.Error("body plus non-exit head must enter the mode")
	}
	if len(th.binder.replayed) != 1 || th.binder.replayed[0] != "j" {
		t.Errorf("replayed = %v, want [j]", th.binder.replayed)
	}
}

func TestBodyPlusExitHeadFiresWithoutEntering(t *testing.T) {
	th := newTestHost()
	cfg := scrollConfig()
	cfg.Heads[2].Action = head.Keys("ZZ")
	inst := newTestInstance(t, cfg, th)

	th.binder.press(t, "<leader>aq")

	if inst.Active() {
		t.Error("body plus exit head must not enter the mode")
	}
	if len(th.binder.replayed) != 1 || th.binder.replayed[0] != "ZZ" {
		t.Errorf("replayed = %v, want [ZZ]", th.binder.replayed)
	}
	// No session was opened, so nothing to restore.
	if got := th.store.values[layer.OptShowPending]; got != true {
		t.Errorf("%s = %v, want untouched true", layer.OptShowPending, got)
	}
}

func TestInvokeOnBodySkipsEnterFire(t *testing.T) {
	th := newTestHost()
	cfg := scrollConfig()
	cfg.InvokeOnBody = true
	inst := newTestInstance(t, cfg, th)

	if _, ok := th.binder.actions["n <leader>aj"]; ok {
		t.Error("invoke-on-body instance must not register body+head bindings")
	}
	th.binder.press(t, "<leader>a")
	if !inst.Active() {
		t.Error("body press must still enter")
	}
	if len(th.binder.replayed) != 0 {
		t.Error("entering must not fire any head")
	}
}

func TestBodylessForcesInvokeOnBody(t *testing.T) {
	th := newTestHost()
	cfg := scrollConfig()
	cfg.Body = ""
	inst := newTestInstance(t, cfg, th)

	if len(inst.Plan().ByKind(plan.KindBodyEnter)) != 0 {
		t.Error("bodyless instance must not register a body binding")
	}
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !inst.Active() {
		t.Error("programmatic activation failed")
	}
}

func TestExplicitColorWins(t *testing.T) {
	// Flags derive Red; the explicit Amaranth takes precedence.
	th := newTestHost()
	cfg := scrollConfig()
	cfg.Color = head.Amaranth
	inst := newTestInstance(t, cfg, th)

	if inst.Color() != head.Amaranth {
		t.Errorf("color = %v, want Amaranth (explicit wins)", inst.Color())
	}
}

func TestDuplicateLhsFailsValidation(t *testing.T) {
	th := newTestHost()
	cfg := scrollConfig()
	cfg.Heads = append(cfg.Heads, head.Spec{Lhs: "j", Action: head.Keys("gg")})

	_, err := newInstance(cfg, th.host, layer.NewSlot())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(th.binder.actions) != 0 {
		t.Error("failed construction must register no bindings")
	}
}

func TestPinkRequiresCascadeCollaborator(t *testing.T) {
	th := newTestHost()
	cfg := scrollConfig()
	cfg.Color = head.Pink

	_, err := newInstance(cfg, th.host, layer.NewSlot())
	if !errors.Is(err, ErrMissingCollaborator) {
		t.Fatalf("error = %v, want ErrMissingCollaborator", err)
	}
	if len(th.binder.actions) != 0 {
		t.Error("failed construction must register no bindings")
	}
}

func TestSyntheticEscapeExit(t *testing.T) {
	th := newTestHost()
	cfg := Config{
		Name: "noexit",
		Body: "<leader>w",
		Heads: []head.Spec{
			{Lhs: "h", Action: head.Keys("h")},
		},
	}
	inst := newTestInstance(t, cfg, th)

	th.binder.press(t, "<leader>w")
	if !inst.Active() {
		t.Fatal("not active")
	}
	th.binder.press(t, "<Esc>")
	if inst.Active() {
		t.Error("synthetic escape head must exit")
	}
}

func TestDestroyUnbindsEverything(t *testing.T) {
	th := newTestHost()
	inst := newTestInstance(t, scrollConfig(), th)

	if len(th.binder.actions) == 0 {
		t.Fatal("no bindings registered")
	}
	th.binder.press(t, "<leader>a")
	if err := inst.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if inst.Active() {
		t.Error("destroy must exit an active instance")
	}
	if len(th.binder.actions) != 0 {
		t.Errorf("%d bindings left after destroy", len(th.binder.actions))
	}
}

func TestTwoInstancesIndependentBindings(t *testing.T) {
	th := newTestHost()
	slot := layer.NewSlot()
	first, err := newInstance(scrollConfig(), th.host, slot)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	cfg := scrollConfig()
	cfg.Name = "window"
	cfg.Body = "<C-w>"
	second, err := newInstance(cfg, th.host, slot)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if err := first.Activate(); err != nil {
		t.Fatalf("Activate first: %v", err)
	}
	if err := second.Activate(); err != nil {
		t.Fatalf("Activate second: %v", err)
	}

	if first.Active() {
		t.Error("first must be forced out when second enters")
	}
	if !second.Active() {
		t.Error("second must be active")
	}
}

func TestInactiveHeadBindingPassesKeyThrough(t *testing.T) {
	// Head bindings stay registered while the mode is inactive; firing
	// one then must hand the key back to the host unchanged.
	th := newTestHost()
	inst := newTestInstance(t, scrollConfig(), th)

	th.binder.press(t, "j")

	if inst.Active() {
		t.Error("head press without the body must not enter")
	}
	if len(th.binder.replayed) != 1 || th.binder.replayed[0] != "j" {
		t.Errorf("replayed = %v, want the key passed through", th.binder.replayed)
	}
}

func TestMultiKeyHeadWaitBinding(t *testing.T) {
	th := newTestHost()
	cfg := Config{
		Name: "ops",
		Body: "<leader>o",
		Heads: []head.Spec{
			{Lhs: "dd", Action: head.Keys("dd")},
			{Lhs: "q", Options: head.Options{Exit: exitTrue()}},
		},
	}
	inst := newTestInstance(t, cfg, th)

	th.binder.press(t, "<leader>o")
	// Intermediate prefix keeps the mode armed.
	th.binder.press(t, "d")
	if !inst.Active() {
		t.Error("wait continuation must keep the mode active")
	}
	th.binder.press(t, "dd")
	if len(th.binder.replayed) != 1 || th.binder.replayed[0] != "dd" {
		t.Errorf("replayed = %v, want [dd]", th.binder.replayed)
	}
}
