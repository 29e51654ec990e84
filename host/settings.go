package host

import (
	"sync"

	"github.com/dshills/hydra/layer"
)

// Settings is a map-backed option store. Unknown options read as nil
// so session snapshots can capture options the host never set.
type Settings struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSettings creates a store seeded with the session option
// defaults.
func NewSettings() *Settings {
	return &Settings{values: map[string]any{
		layer.OptShowPending: true,
		layer.OptTimeout:     true,
		layer.OptTimeoutLen:  1000,
		layer.OptTTimeout:    true,
	}}
}

// Get returns the value of an option, nil if never set.
func (s *Settings) Get(name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name], nil
}

// Set writes an option value.
func (s *Settings) Set(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

// Bool reads an option as a boolean, false when unset or another
// type.
func (s *Settings) Bool(name string) bool {
	v, _ := s.Get(name)
	b, _ := v.(bool)
	return b
}

// Int reads an option as an int, def when unset or another type.
func (s *Settings) Int(name string, def int) int {
	v, _ := s.Get(name)
	if n, ok := v.(int); ok {
		return n
	}
	return def
}
