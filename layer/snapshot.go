package layer

import (
	"fmt"
	"strconv"
)

// Snapshot captures host option values at session entry and restores
// them at exit. Every session-scoped mutation flows through it so the
// original value is saved before the first write.
type Snapshot struct {
	store OptionsStore
	saved map[string]any
	order []string
}

// NewSnapshot captures the current values of the named options.
func NewSnapshot(store OptionsStore, names ...string) (*Snapshot, error) {
	s := &Snapshot{
		store: store,
		saved: make(map[string]any, len(names)),
	}
	for _, name := range names {
		if err := s.capture(name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Snapshot) capture(name string) error {
	if _, ok := s.saved[name]; ok {
		return nil
	}
	value, err := s.store.Get(name)
	if err != nil {
		return fmt.Errorf("snapshotting option %q: %w", name, err)
	}
	s.saved[name] = value
	s.order = append(s.order, name)
	return nil
}

// Saved returns the captured original value of an option.
func (s *Snapshot) Saved(name string) (any, bool) {
	v, ok := s.saved[name]
	return v, ok
}

// Set writes a host option, capturing its original value first if
// this is the first write to it in the session.
func (s *Snapshot) Set(name string, value any) error {
	if err := s.capture(name); err != nil {
		return err
	}
	if err := s.store.Set(name, value); err != nil {
		return fmt.Errorf("setting option %q: %w", name, err)
	}
	return nil
}

// Restore writes every captured option back in reverse capture order.
// All options are restored even if some writes fail; the first error
// is returned.
func (s *Snapshot) Restore() error {
	var firstErr error
	for i := len(s.order) - 1; i >= 0; i-- {
		name := s.order[i]
		if err := s.store.Set(name, s.saved[name]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("restoring option %q: %w", name, err)
		}
	}
	return firstErr
}

// Callback is a user session callback. Option mutation goes through
// the provided accessor; its capabilities depend on the phase.
type Callback func(opts *SessionOptions)

// SessionOptions is the option-mutation capability passed to session
// callbacks. In on_enter it funnels writes through the session
// snapshot so they restore at exit. In on_exit it is disabled:
// mutating host options from exit teardown is a programming error and
// panics with AccessorMisuse.
type SessionOptions struct {
	snap     *Snapshot
	disabled bool
	phase    string
}

// Get reads a host option. Allowed in both phases.
func (o *SessionOptions) Get(name string) (any, error) {
	return o.snap.store.Get(name)
}

// Set writes a host option through the session snapshot.
func (o *SessionOptions) Set(name string, value any) error {
	if o.disabled {
		panic(&AccessorMisuse{Phase: o.phase, Option: name})
	}
	return o.snap.Set(name, value)
}

// SetRaw writes through a raw numeric host handle. Raw handles bypass
// the session snapshot and can never be restored, so this always
// panics with AccessorMisuse; use Set instead.
func (o *SessionOptions) SetRaw(handle int, name string, value any) {
	panic(&AccessorMisuse{Phase: o.phase, Option: "handle " + strconv.Itoa(handle) + ": " + name})
}
