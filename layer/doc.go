// Package layer implements the runtime state machine of a modal
// keybinding layer: a transient named mode in which a fixed set of
// heads stays bound until an exit condition is met.
//
// The controller tracks the single globally-active instance through a
// Slot, handles enter/leave/exit transitions, applies and restores
// host settings for the session, and implements the color-specific
// foreign-key interception (amaranth and teal reject unmatched input
// with a warning instead of exiting).
//
// Everything here is single-threaded and event-driven: the host's key
// dispatch loop invokes bindings synchronously and Waiting is a
// logical state, not a blocked call. The only polling-like spot is
// the non-blocking buffered-input check used by the rejection loop.
package layer
