package key

import (
	"strings"
	"unicode"
)

// Sequence is an ordered series of key events, e.g. the tokenization
// of "<C-u>x" into two units.
type Sequence struct {
	// Events contains the key events in order.
	Events []Event
}

// NewSequence creates an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{Events: make([]Event, 0, 4)}
}

// NewSequenceFrom creates a sequence from the given events.
func NewSequenceFrom(events ...Event) *Sequence {
	return &Sequence{Events: events}
}

// Len returns the number of events in the sequence.
func (s *Sequence) Len() int {
	return len(s.Events)
}

// IsEmpty returns true if the sequence has no events.
func (s *Sequence) IsEmpty() bool {
	return s == nil || len(s.Events) == 0
}

// Add appends an event to the sequence.
func (s *Sequence) Add(event Event) {
	s.Events = append(s.Events, event)
}

// Equals returns true if two sequences are identical.
func (s *Sequence) Equals(other *Sequence) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Events) != len(other.Events) {
		return false
	}
	for i, e := range s.Events {
		if !e.Equals(other.Events[i]) {
			return false
		}
	}
	return true
}

// HasPrefix returns true if this sequence starts with the given prefix.
func (s *Sequence) HasPrefix(prefix *Sequence) bool {
	if prefix.IsEmpty() {
		return true
	}
	if s == nil || len(prefix.Events) > len(s.Events) {
		return false
	}
	for i, e := range prefix.Events {
		if !e.Equals(s.Events[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return &Sequence{Events: events}
}

// Head returns a new sequence with only the first n events.
func (s *Sequence) Head(n int) *Sequence {
	if n < 0 {
		n = 0
	}
	if n > len(s.Events) {
		n = len(s.Events)
	}
	events := make([]Event, n)
	copy(events, s.Events[:n])
	return &Sequence{Events: events}
}

// Append creates a new sequence by appending events from another.
// Neither receiver nor argument is modified.
func (s *Sequence) Append(other *Sequence) *Sequence {
	if other.IsEmpty() {
		return s.Clone()
	}
	if s == nil {
		return other.Clone()
	}
	events := make([]Event, 0, len(s.Events)+len(other.Events))
	events = append(events, s.Events...)
	events = append(events, other.Events...)
	return &Sequence{Events: events}
}

// Prefixes returns every strict, non-empty proper prefix of the
// sequence in increasing length. A one-unit sequence has none.
func (s *Sequence) Prefixes() []*Sequence {
	if s == nil || len(s.Events) < 2 {
		return nil
	}
	prefixes := make([]*Sequence, 0, len(s.Events)-1)
	for n := 1; n < len(s.Events); n++ {
		prefixes = append(prefixes, s.Head(n))
	}
	return prefixes
}

// String returns the canonical notation for the sequence, units
// concatenated: "<C-u>x", "dd", "<leader>a".
func (s *Sequence) String() string {
	if s == nil || len(s.Events) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, e := range s.Events {
		sb.WriteString(e.String())
	}
	return sb.String()
}

// ParseSequence tokenizes a key sequence string. Scanning left to
// right, a boundary falls after either a bracketed <...> token or a
// single character: "<C-u>x" splits into ["<C-u>", "x"], "dd" into
// ["d", "d"]. A "<" with no closing ">" is taken literally.
func ParseSequence(s string) (*Sequence, error) {
	seq := NewSequence()
	runes := []rune(s)

	i := 0
	for i < len(runes) {
		if runes[i] == '<' {
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '>' {
					end = j
					break
				}
			}
			if end > i+1 {
				event, err := Parse(string(runes[i : end+1]))
				if err != nil {
					return nil, err
				}
				seq.Add(event)
				i = end + 1
				continue
			}
		}

		r := runes[i]
		var mods Modifier
		if unicode.IsUpper(r) {
			mods = ModShift
		}
		seq.Add(NewRuneEvent(r, mods))
		i++
	}

	return seq, nil
}

// MustParseSequence parses a sequence string and panics on error. Use
// only for known-valid sequences in initialization code.
func MustParseSequence(s string) *Sequence {
	seq, err := ParseSequence(s)
	if err != nil {
		panic("invalid key sequence: " + s + ": " + err.Error())
	}
	return seq
}
