package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a single key unit into an Event.
//
// Supported formats:
//   - Single character: "a", "A", "1", "@"
//   - Bracketed notation: "<Esc>", "<CR>", "<C-u>", "<A-F4>", "<lt>"
func Parse(spec string) (Event, error) {
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && len(spec) > 2 {
		return parseBracketed(spec[1 : len(spec)-1])
	}

	r, size := utf8.DecodeRuneInString(spec)
	if size != len(spec) || r == utf8.RuneError {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
	}
	var mods Modifier
	if unicode.IsUpper(r) {
		mods = ModShift
	}
	return NewRuneEvent(r, mods), nil
}

// parseBracketed parses the inner text of a <...> unit, e.g. "C-u",
// "Esc", "A-CR".
func parseBracketed(inner string) (Event, error) {
	parts := strings.Split(inner, "-")

	var mods Modifier
	keyPart := parts[len(parts)-1]

	// A trailing empty part means the key itself is "-", as in "<C-->".
	if keyPart == "" && len(parts) >= 2 {
		keyPart = "-"
		parts = parts[:len(parts)-1]
	}

	for _, p := range parts[:len(parts)-1] {
		mod := modifierLetter(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	return parseKeyPart(keyPart, mods)
}

// parseKeyPart resolves the key name of a bracketed unit.
func parseKeyPart(keyPart string, mods Modifier) (Event, error) {
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}

	switch strings.ToLower(keyPart) {
	case "space":
		return NewRuneEvent(' ', mods), nil
	case "lt":
		return NewRuneEvent('<', mods), nil
	case "gt":
		return NewRuneEvent('>', mods), nil
	case "bar":
		return NewRuneEvent('|', mods), nil
	case "bslash":
		return NewRuneEvent('\\', mods), nil
	case "minus":
		return NewRuneEvent('-', mods), nil
	}

	if k := FromName(keyPart); k != KeyNone {
		return NewSpecialEvent(k, mods), nil
	}

	r, size := utf8.DecodeRuneInString(keyPart)
	if size != len(keyPart) || r == utf8.RuneError {
		return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
	}
	if mods.Has(ModCtrl) {
		r = unicode.ToLower(r)
	}
	return NewRuneEvent(r, mods), nil
}

// MustParse parses a key unit and panics on error. Use only for
// known-valid specs in initialization code.
func MustParse(spec string) Event {
	event, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return event
}
