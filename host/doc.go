// Package host provides a terminal host for hydra instances: a
// binding router with longest-match dispatch and a tcell screen
// adapter implementing the collaborator surface (binder, input peek,
// options, hint display, notifications).
package host
