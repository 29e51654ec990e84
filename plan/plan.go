// Package plan derives the full set of key bindings needed to
// implement one hydra instance: the body trigger, enter-and-fire
// bindings for every head reachable from outside the mode, the
// in-mode bindings live while waiting, and the intermediate wait
// bindings that keep multi-key heads reachable without the host
// timing out on partial input.
package plan

import (
	"fmt"

	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/key"
)

// Kind classifies a generated binding.
type Kind uint8

const (
	// KindBodyEnter is the body prefix itself: enters the mode.
	KindBodyEnter Kind = iota

	// KindEnterFire is body ++ head for a non-exit head: enters the
	// mode, runs the head, then arms the wait state.
	KindEnterFire

	// KindFire is body ++ head for an exit head: runs the head
	// without ever entering the mode.
	KindFire

	// KindInMode is the head alone, live while waiting.
	KindInMode

	// KindWaitContinue is a strict proper prefix of a multi-key head,
	// bound to stay in the wait state.
	KindWaitContinue
)

// String returns the kind name used in binding identities.
func (k Kind) String() string {
	switch k {
	case KindBodyEnter:
		return "body"
	case KindEnterFire:
		return "enter"
	case KindFire:
		return "fire"
	case KindInMode:
		return "head"
	case KindWaitContinue:
		return "wait"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Binding is one key binding the host must register.
type Binding struct {
	// ID embeds the owning instance so bindings of different
	// instances never collide and remain independently removable.
	ID string

	// Kind classifies the binding's runtime behavior.
	Kind Kind

	// Seq is the full key sequence to register.
	Seq *key.Sequence

	// Head is the head this binding dispatches; nil for KindBodyEnter
	// and KindWaitContinue.
	Head *head.Head

	// Modes are the host editor modes to bind in.
	Modes []string
}

// Plan is the complete binding set of one instance.
type Plan struct {
	// InstanceID identifies the owning instance.
	InstanceID string

	// Body is the enter prefix; empty for bodyless instances.
	Body *key.Sequence

	// Bindings holds every generated binding.
	Bindings []Binding
}

// Build derives the binding plan for an instance. With invokeOnBody
// set, heads are reachable only from inside the mode and no
// enter-and-fire bindings are produced. Wait continuations are the
// deduplicated union of every head's strict proper prefixes; a prefix
// that is itself a head lhs already has an in-mode binding and is
// skipped.
func Build(instanceID string, body *key.Sequence, table *head.Table, invokeOnBody bool, modes []string) *Plan {
	p := &Plan{
		InstanceID: instanceID,
		Body:       body,
	}

	if !body.IsEmpty() {
		p.add(KindBodyEnter, body, nil, modes)
	}

	for _, h := range table.Heads() {
		headModes := modes
		if len(h.Mode) > 0 {
			headModes = h.Mode
		}

		if !invokeOnBody && !h.Private && !body.IsEmpty() {
			full := body.Append(h.Seq)
			if h.Exit {
				p.add(KindFire, full, h, headModes)
			} else {
				p.add(KindEnterFire, full, h, headModes)
			}
		}

		p.add(KindInMode, h.Seq, h, headModes)
	}

	seen := make(map[string]bool)
	for _, h := range table.Heads() {
		for _, prefix := range h.Seq.Prefixes() {
			id := prefix.String()
			if seen[id] || table.Lookup(prefix) != nil {
				continue
			}
			seen[id] = true

			headModes := modes
			if len(h.Mode) > 0 {
				headModes = h.Mode
			}
			p.add(KindWaitContinue, prefix, nil, headModes)
		}
	}

	return p
}

// add appends a binding with its identity stamped.
func (p *Plan) add(kind Kind, seq *key.Sequence, h *head.Head, modes []string) {
	p.Bindings = append(p.Bindings, Binding{
		ID:    fmt.Sprintf("%s/%s/%s", p.InstanceID, kind, seq),
		Kind:  kind,
		Seq:   seq,
		Head:  h,
		Modes: modes,
	})
}

// ByKind returns the bindings of one kind, in generation order.
func (p *Plan) ByKind(kind Kind) []Binding {
	var out []Binding
	for _, b := range p.Bindings {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// Count returns the number of bindings of one kind.
func (p *Plan) Count(kind Kind) int {
	n := 0
	for _, b := range p.Bindings {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// IDs returns every binding identity in the plan.
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.Bindings))
	for i, b := range p.Bindings {
		ids[i] = b.ID
	}
	return ids
}
