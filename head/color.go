package head

import (
	"errors"
	"fmt"
	"strings"
)

// Color is the exit and foreign-key policy governing an instance or an
// individual head.
type Color uint8

const (
	// ColorUnset means no explicit color was requested; the effective
	// color is derived from the foreign-key and exit flags.
	ColorUnset Color = iota

	// Red exits the mode on any foreign key without consuming it.
	Red

	// Blue never auto-exits on foreign keys; heads marked exit leave
	// the mode after running.
	Blue

	// Amaranth rejects foreign keys with a warning; only exit heads
	// leave the mode.
	Amaranth

	// Teal rejects foreign keys with a warning and only defined heads
	// run at all.
	Teal

	// Pink delegates mode entry and exit to an external cascading
	// layer. It is never derived from flags and must be requested
	// explicitly.
	Pink
)

// ForeignKeys is the policy for input that matches no head while the
// mode is active.
type ForeignKeys uint8

const (
	// ForeignNone lets a foreign key fall through to the host,
	// exiting the mode first.
	ForeignNone ForeignKeys = iota

	// ForeignWarn rejects foreign keys with a warning.
	ForeignWarn

	// ForeignRun runs foreign keys without leaving the mode.
	ForeignRun
)

// ErrPinkNotDerivable is returned when asking for the flag
// representation of Pink, which must always be requested explicitly.
var ErrPinkNotDerivable = errors.New("pink has no foreign-key/exit representation")

// String returns the lowercase color name.
func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Amaranth:
		return "amaranth"
	case Teal:
		return "teal"
	case Pink:
		return "pink"
	default:
		return "unset"
	}
}

// String returns the policy name.
func (f ForeignKeys) String() string {
	switch f {
	case ForeignWarn:
		return "warn"
	case ForeignRun:
		return "run"
	default:
		return "none"
	}
}

// ColorFromOptions derives the color implied by a foreign-key policy
// and a default exit flag:
//
//	warn + !exit -> Amaranth
//	warn +  exit -> Teal
//	run  +  exit -> Teal
//	run  + !exit -> Blue ("run" alone is ambiguous, treated as Blue)
//	none +  exit -> Blue
//	none + !exit -> Red
//
// Pink is never derived this way.
func ColorFromOptions(fk ForeignKeys, exit bool) Color {
	switch fk {
	case ForeignWarn:
		if exit {
			return Teal
		}
		return Amaranth
	case ForeignRun:
		if exit {
			return Teal
		}
		return Blue
	default:
		if exit {
			return Blue
		}
		return Red
	}
}

// OptionsFromColor is the inverse of ColorFromOptions, used when the
// user sets a color directly instead of the raw flags. It round-trips
// for Red, Blue, Amaranth and Teal. Pink returns ErrPinkNotDerivable.
func OptionsFromColor(c Color) (ForeignKeys, bool, error) {
	switch c {
	case Red:
		return ForeignNone, false, nil
	case Blue:
		return ForeignNone, true, nil
	case Amaranth:
		return ForeignWarn, false, nil
	case Teal:
		return ForeignWarn, true, nil
	case Pink:
		return ForeignNone, false, ErrPinkNotDerivable
	default:
		return ForeignNone, false, fmt.Errorf("no flag representation for color %q", c)
	}
}

// RejectsForeign returns true if the color turns unmatched input into
// a warning instead of an exit.
func (c Color) RejectsForeign() bool {
	return c == Amaranth || c == Teal
}

// ParseColor parses a color name as written in configuration files.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return Red, nil
	case "blue":
		return Blue, nil
	case "amaranth":
		return Amaranth, nil
	case "teal":
		return Teal, nil
	case "pink":
		return Pink, nil
	case "":
		return ColorUnset, nil
	default:
		return ColorUnset, fmt.Errorf("unknown color %q", s)
	}
}

// ParseForeignKeys parses a foreign-key policy name.
func ParseForeignKeys(s string) (ForeignKeys, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ForeignNone, nil
	case "warn":
		return ForeignWarn, nil
	case "run":
		return ForeignRun, nil
	default:
		return ForeignNone, fmt.Errorf("unknown foreign_keys policy %q", s)
	}
}
