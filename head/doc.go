// Package head compiles flat head definitions into the resolved head
// table of one hydra instance, including the color policy that governs
// exit and foreign-key behavior.
//
// A head is one bindable action reachable while the mode is active.
// Colors map configuration flags to exit policy: red exits on any
// foreign key, blue never auto-exits, amaranth and teal reject foreign
// keys with a warning, pink delegates to an external cascading layer.
package head
