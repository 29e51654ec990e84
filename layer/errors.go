package layer

import (
	"errors"
	"fmt"
)

// Errors for session construction and transitions.
var (
	// ErrMissingCollaborator is returned when a pink instance is
	// constructed without a cascade collaborator. Construction aborts
	// gracefully and registers no bindings.
	ErrMissingCollaborator = errors.New("cascade collaborator unavailable")

	// ErrNotActive is returned when dispatching against a controller
	// that does not own the active slot.
	ErrNotActive = errors.New("instance is not active")
)

// AccessorMisuse reports a host-option mutation through a disallowed
// accessor: writing from an on_exit callback, or using a raw numeric
// handle that bypasses the session snapshot. It is raised as a panic
// and never recovered internally.
type AccessorMisuse struct {
	Phase  string
	Option string
}

func (e *AccessorMisuse) Error() string {
	return fmt.Sprintf("host option %q mutated through a disallowed accessor in %s", e.Option, e.Phase)
}
