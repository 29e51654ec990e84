package host

import (
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/hydra/hint"
	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/layer"
	"github.com/dshills/hydra/logging"
)

// Terminal is a tcell-backed host: it polls terminal input, routes it
// through the binding table, renders the active hint and status line,
// and exposes the collaborator surface a hydra session needs.
type Terminal struct {
	screen   tcell.Screen
	router   *Router
	settings *Settings
	log      *logging.Logger

	// OnKey receives keys no binding claimed.
	OnKey func(ev key.Event)

	// OnDraw paints the application content on every redraw, before
	// the hint and status overlays.
	OnDraw func(screen tcell.Screen)

	leader rune

	input *InputQueue
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup

	mu     sync.Mutex
	hint   *hint.Hint
	status string
}

// NewTerminal creates a terminal host in the given initial mode.
func NewTerminal(mode string, log *logging.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Null()
	}

	t := &Terminal{
		screen:   screen,
		settings: NewSettings(),
		log:      log.WithComponent("host"),
		leader:   ' ',
		input:    NewInputQueue(64),
		quit:     make(chan struct{}),
	}
	t.router = NewRouter(mode, func(ev key.Event) {
		if t.OnKey != nil {
			t.OnKey(ev)
		}
	})
	// Foreign keys route through the active instance's leave path
	// before reaching OnKey.
	t.router.SetFallback(LeaveFallback(layer.DefaultSlot(), t.input))
	return t, nil
}

// SetLeader sets the key typed for <leader>; space by default.
func (t *Terminal) SetLeader(r rune) {
	t.leader = r
}

// Router returns the binding router, for bindings outside any hydra.
func (t *Terminal) Router() *Router { return t.router }

// Settings returns the option store.
func (t *Terminal) Settings() *Settings { return t.settings }

// Host assembles the collaborator bundle backed by this terminal.
// Cascade is left nil; pink instances need an external layer.
func (t *Terminal) Host() layer.Host {
	return layer.Host{
		Binder:  t.router,
		Input:   t.input,
		Options: t.settings,
		Hint:    t,
		Notify:  t,
	}
}

// Run initializes the screen and blocks dispatching input until Stop.
func (t *Terminal) Run() error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	defer t.screen.Fini()

	t.draw()

	t.wg.Add(1)
	go t.pollLoop()
	defer t.wg.Wait()

	return t.dispatchLoop()
}

// Stop ends the dispatch loop. Safe to call from binding actions.
func (t *Terminal) Stop() {
	t.once.Do(func() { close(t.quit) })
}

func (t *Terminal) pollLoop() {
	defer t.wg.Done()

	for {
		raw := t.screen.PollEvent()
		if raw == nil {
			return
		}
		select {
		case <-t.quit:
			return
		default:
		}

		switch tev := raw.(type) {
		case *tcell.EventKey:
			ev, ok := t.convertKey(tev)
			if !ok {
				continue
			}
			if !t.input.Push(ev) {
				t.log.Warn("input buffer full, dropping %s", ev)
			}
		case *tcell.EventResize:
			t.screen.Sync()
			t.draw()
		}
	}
}

func (t *Terminal) dispatchLoop() error {
	for {
		var timeoutC <-chan time.Time
		if t.router.HasPending() && t.settings.Bool(layer.OptTimeout) {
			ms := t.settings.Int(layer.OptTimeoutLen, 1000)
			timeoutC = time.After(time.Duration(ms) * time.Millisecond)
		}

		select {
		case <-t.quit:
			// Unblock PollEvent so pollLoop can exit.
			t.screen.PostEventWait(tcell.NewEventInterrupt(nil))
			return nil
		case ev := <-t.input.C():
			t.router.Feed(ev)
			t.draw()
		case <-timeoutC:
			t.router.Flush()
			t.draw()
		}
	}
}

// convertKey translates a tcell key event into canonical notation.
// Control letters arrive as dedicated tcell keys and are folded back
// into modified runes; the configured leader rune becomes the opaque
// leader unit.
func (t *Terminal) convertKey(tev *tcell.EventKey) (key.Event, bool) {
	mods := convertMods(tev.Modifiers())

	switch k := tev.Key(); {
	case k == tcell.KeyRune:
		r := tev.Rune()
		if r == t.leader && mods == key.ModNone {
			return key.NewSpecialEvent(key.KeyLeader, key.ModNone), true
		}
		if unicode.IsUpper(r) {
			mods |= key.ModShift
		}
		return key.NewRuneEvent(r, mods), true

	case k == tcell.KeyEscape:
		return key.NewSpecialEvent(key.KeyEscape, mods), true
	case k == tcell.KeyEnter:
		return key.NewSpecialEvent(key.KeyEnter, mods), true
	case k == tcell.KeyTab:
		return key.NewSpecialEvent(key.KeyTab, mods), true
	case k == tcell.KeyBackspace || k == tcell.KeyBackspace2:
		return key.NewSpecialEvent(key.KeyBackspace, mods), true
	case k == tcell.KeyDelete:
		return key.NewSpecialEvent(key.KeyDelete, mods), true
	case k == tcell.KeyInsert:
		return key.NewSpecialEvent(key.KeyInsert, mods), true
	case k == tcell.KeyHome:
		return key.NewSpecialEvent(key.KeyHome, mods), true
	case k == tcell.KeyEnd:
		return key.NewSpecialEvent(key.KeyEnd, mods), true
	case k == tcell.KeyPgUp:
		return key.NewSpecialEvent(key.KeyPageUp, mods), true
	case k == tcell.KeyPgDn:
		return key.NewSpecialEvent(key.KeyPageDown, mods), true
	case k == tcell.KeyUp:
		return key.NewSpecialEvent(key.KeyUp, mods), true
	case k == tcell.KeyDown:
		return key.NewSpecialEvent(key.KeyDown, mods), true
	case k == tcell.KeyLeft:
		return key.NewSpecialEvent(key.KeyLeft, mods), true
	case k == tcell.KeyRight:
		return key.NewSpecialEvent(key.KeyRight, mods), true
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		return key.NewSpecialEvent(key.KeyF1+key.Key(k-tcell.KeyF1), mods), true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		r := rune('a' + k - tcell.KeyCtrlA)
		return key.NewRuneEvent(r, mods|key.ModCtrl), true
	default:
		return key.Event{}, false
	}
}

func convertMods(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModCtrl != 0 {
		mods |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= key.ModMeta
	}
	return mods
}

// Show displays the hint overlay.
func (t *Terminal) Show(h *hint.Hint) error {
	t.mu.Lock()
	t.hint = h
	t.mu.Unlock()
	t.draw()
	return nil
}

// Close removes the hint overlay.
func (t *Terminal) Close() {
	t.mu.Lock()
	t.hint = nil
	t.mu.Unlock()
	t.draw()
}

// Warn shows a one-line warning in the status line.
func (t *Terminal) Warn(message string) {
	t.mu.Lock()
	t.status = message
	t.mu.Unlock()
	t.draw()
}

// ClearStatus clears the status line.
func (t *Terminal) ClearStatus() {
	t.mu.Lock()
	t.status = ""
	t.mu.Unlock()
	t.draw()
}

func (t *Terminal) draw() {
	t.mu.Lock()
	h := t.hint
	status := t.status
	t.mu.Unlock()

	t.screen.Clear()
	if t.OnDraw != nil {
		t.OnDraw(t.screen)
	}

	width, height := t.screen.Size()
	if h != nil {
		t.drawHint(h, width, height)
	}
	if status != "" {
		style := tcell.StyleDefault.Reverse(true)
		drawText(t.screen, 0, height-1, width, status, style)
	}
	t.screen.Show()
}

// drawHint paints the hint box above the status line, right-aligned.
func (t *Terminal) drawHint(h *hint.Hint, width, height int) {
	lines := h.Lines
	boxWidth := 0
	for _, line := range lines {
		if len(line) > boxWidth {
			boxWidth = len(line)
		}
	}
	if boxWidth > width {
		boxWidth = width
	}

	top := height - 1 - len(lines)
	if top < 0 {
		top = 0
	}
	left := width - boxWidth
	if left < 0 {
		left = 0
	}

	style := tcell.StyleDefault.Dim(true)
	for i, line := range lines {
		drawText(t.screen, left, top+i, boxWidth, line, style)
	}
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			break
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}
