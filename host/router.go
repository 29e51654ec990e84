package host

import (
	"errors"
	"sync"

	"github.com/dshills/hydra/key"
	"github.com/dshills/hydra/layer"
)

// ErrNotBound is returned when unbinding a sequence that is not
// registered under the given id.
var ErrNotBound = errors.New("sequence not bound")

// Unhandled receives key events no binding claimed, in input order.
type Unhandled func(ev key.Event)

type routerBinding struct {
	id     string
	seq    *key.Sequence
	action func()
	opts   layer.BindOptions
}

// Router routes key events to bound actions with longest-match
// semantics: typed keys accumulate while they can still extend to a
// longer binding, and an exact match that is also a prefix of a
// longer one fires only when the input stops extending or Flush runs.
type Router struct {
	mu        sync.Mutex
	mode      string
	bindings  map[string]map[string]routerBinding // mode -> seq string
	unhandled Unhandled

	fallback func(ev key.Event) bool

	pending  []key.Event
	match    *routerBinding
	matchLen int
}

// NewRouter creates a router starting in the given mode. Events no
// binding claims go to unhandled, which may be nil.
func NewRouter(mode string, unhandled Unhandled) *Router {
	return &Router{
		mode:      mode,
		bindings:  make(map[string]map[string]routerBinding),
		unhandled: unhandled,
	}
}

// SetFallback installs a hook that sees each unresolved key before the
// unhandled sink. Returning true claims the key. Hosts use it to run
// the active instance's leave path on foreign keys.
func (r *Router) SetFallback(fn func(ev key.Event) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

// Mode returns the current routing mode.
func (r *Router) Mode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode switches the routing mode, dropping any pending input.
func (r *Router) SetMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	r.clearPendingLocked()
}

// Bind registers action under seq in mode. Rebinding an occupied
// sequence replaces it; layered bindings shadow this way.
func (r *Router) Bind(mode string, seq *key.Sequence, id string, action func(), opts layer.BindOptions) error {
	if seq.IsEmpty() {
		return errors.New("cannot bind an empty sequence")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.bindings[mode]
	if table == nil {
		table = make(map[string]routerBinding)
		r.bindings[mode] = table
	}
	table[seq.String()] = routerBinding{id: id, seq: seq.Clone(), action: action, opts: opts}
	return nil
}

// Unbind removes the binding under seq in mode, but only if it still
// belongs to id. A binding replaced by another owner stays.
func (r *Router) Unbind(mode string, seq *key.Sequence, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.bindings[mode]
	b, ok := table[seq.String()]
	if !ok || b.id != id {
		return ErrNotBound
	}
	delete(table, seq.String())
	return nil
}

// Replay feeds a sequence as if typed. With remap set, replayed keys
// run through the binding table again; otherwise they go straight to
// the unhandled sink.
func (r *Router) Replay(seq *key.Sequence, remap bool) error {
	if remap {
		for _, ev := range seq.Events {
			r.Feed(ev)
		}
		return nil
	}
	if r.unhandled != nil {
		for _, ev := range seq.Events {
			r.unhandled(ev)
		}
	}
	return nil
}

// HasPending reports whether typed input is waiting for more keys.
func (r *Router) HasPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) > 0
}

// Pending returns the waiting input as a sequence.
func (r *Router) Pending() *key.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return key.NewSequenceFrom(r.pending...)
}

// Feed routes one key event.
func (r *Router) Feed(ev key.Event) {
	var fire []func()
	r.mu.Lock()
	r.feedLocked(ev, &fire)
	r.mu.Unlock()

	// Actions run outside the lock; they commonly Replay.
	for _, action := range fire {
		action()
	}
}

// Flush resolves waiting input: a held exact match fires, anything
// else goes to the unhandled sink. Terminals call this when the key
// timeout elapses.
func (r *Router) Flush() {
	var fire []func()
	r.mu.Lock()
	r.flushLocked(&fire)
	r.mu.Unlock()

	for _, action := range fire {
		action()
	}
}

func (r *Router) feedLocked(ev key.Event, fire *[]func()) {
	r.pending = append(r.pending, ev)
	seq := key.NewSequenceFrom(r.pending...)

	exact := r.lookupLocked(seq)
	extendable := r.hasLongerLocked(seq)

	switch {
	case exact != nil && extendable:
		// Hold the match open; a longer binding may still complete.
		r.match = exact
		r.matchLen = len(r.pending)

	case exact != nil:
		r.clearPendingLocked()
		*fire = append(*fire, exact.action)

	case extendable:

	default:
		r.resolveLocked(fire)
	}
}

// resolveLocked runs when pending input can no longer match anything:
// fire the held match if there is one and re-feed the leftover keys,
// or hand the first key to the unhandled sink and re-feed the rest.
func (r *Router) resolveLocked(fire *[]func()) {
	pending := r.pending
	match, matchLen := r.match, r.matchLen
	r.clearPendingLocked()

	var rest []key.Event
	if match != nil {
		*fire = append(*fire, match.action)
		rest = pending[matchLen:]
	} else {
		ev := pending[0]
		sink := r.unhandled
		fb := r.fallback
		*fire = append(*fire, func() {
			if fb != nil && fb(ev) {
				return
			}
			if sink != nil {
				sink(ev)
			}
		})
		rest = pending[1:]
	}

	for _, ev := range rest {
		r.feedLocked(ev, fire)
	}
}

func (r *Router) flushLocked(fire *[]func()) {
	if len(r.pending) == 0 {
		return
	}
	r.resolveLocked(fire)
}

func (r *Router) lookupLocked(seq *key.Sequence) *routerBinding {
	if b, ok := r.bindings[r.mode][seq.String()]; ok {
		return &b
	}
	return nil
}

func (r *Router) hasLongerLocked(seq *key.Sequence) bool {
	for _, b := range r.bindings[r.mode] {
		if b.seq.Len() > seq.Len() && b.seq.HasPrefix(seq) {
			return true
		}
	}
	return false
}

func (r *Router) clearPendingLocked() {
	r.pending = nil
	r.match = nil
	r.matchLen = 0
}
