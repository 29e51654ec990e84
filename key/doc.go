// Package key provides key event primitives and sequence tokenization
// for the hydra modal keybinding layer.
//
// A key sequence string is tokenized left to right: a bracketed <...>
// token such as <C-u> or <Esc> is one unit, any other character is one
// unit on its own. Sequences compare by unit, so "dd" is two units and
// "<C-u>x" is two units.
package key
