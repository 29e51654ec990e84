// Package config loads hydra definitions from JSON, YAML and TOML
// files and can watch them for live reload. File-defined heads carry
// key-replay actions only; function and expression actions exist
// solely on the programmatic surface. The buffer field takes a
// concrete host buffer id with 0 binding globally; scoping to the
// current buffer is likewise programmatic only.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/hydra"
	"github.com/dshills/hydra/head"
	"github.com/dshills/hydra/layer"
)

// ErrBadDefinition reports a structurally invalid definition file.
var ErrBadDefinition = errors.New("invalid hydra definition")

// HeadDef is one head as it appears in a definition file.
type HeadDef struct {
	// Lhs is the key sequence of the head.
	Lhs string `yaml:"lhs" toml:"lhs"`

	// Keys is the sequence replayed when the head fires; empty for a
	// no-op head.
	Keys string `yaml:"keys" toml:"keys"`

	// Desc labels the head in the hint; nil hides nothing, an
	// explicit empty value hides the head.
	Desc *string `yaml:"desc" toml:"desc"`

	// Hidden removes the head from the hint without touching Desc.
	Hidden bool `yaml:"hidden" toml:"hidden"`

	// Exit overrides the instance default exit flag when present.
	Exit *bool `yaml:"exit" toml:"exit"`

	// Private keeps the head out of body-prefixed bindings.
	Private bool `yaml:"private" toml:"private"`

	// Remap lets replayed keys trigger further host mappings.
	Remap bool `yaml:"remap" toml:"remap"`

	// Mode overrides the instance modes for this head.
	Mode []string `yaml:"mode" toml:"mode"`
}

// Definition is one hydra instance as declared in a file.
type Definition struct {
	Name         string    `yaml:"name" toml:"name"`
	Mode         []string  `yaml:"mode" toml:"mode"`
	Body         string    `yaml:"body" toml:"body"`
	Color        string    `yaml:"color" toml:"color"`
	ForeignKeys  string    `yaml:"foreign_keys" toml:"foreign_keys"`
	Exit         bool      `yaml:"exit" toml:"exit"`
	InvokeOnBody bool      `yaml:"invoke_on_body" toml:"invoke_on_body"`
	Hint         string    `yaml:"hint" toml:"hint"`
	TimeoutMS    int       `yaml:"timeout_ms" toml:"timeout_ms"`
	Buffer       int       `yaml:"buffer" toml:"buffer"`
	Debug        bool      `yaml:"debug" toml:"debug"`
	Heads        []HeadDef `yaml:"heads" toml:"heads"`
}

// Config converts the definition into an instance configuration.
func (d *Definition) Config() (hydra.Config, error) {
	var color head.Color
	if d.Color != "" {
		c, err := head.ParseColor(d.Color)
		if err != nil {
			return hydra.Config{}, fmt.Errorf("%w: %s: %v", ErrBadDefinition, d.Name, err)
		}
		color = c
	}

	var fk head.ForeignKeys
	if d.ForeignKeys != "" {
		parsed, err := head.ParseForeignKeys(d.ForeignKeys)
		if err != nil {
			return hydra.Config{}, fmt.Errorf("%w: %s: %v", ErrBadDefinition, d.Name, err)
		}
		fk = parsed
	}

	specs := make([]head.Spec, 0, len(d.Heads))
	for _, h := range d.Heads {
		spec := head.Spec{Lhs: h.Lhs}
		if h.Keys != "" {
			spec.Action = head.Keys(h.Keys)
		}
		spec.Options = head.Options{
			Exit:    h.Exit,
			Private: h.Private,
			Remap:   h.Remap,
			Mode:    h.Mode,
		}
		switch {
		case h.Hidden:
			spec.Options.Desc = head.DescHidden()
		case h.Desc != nil && *h.Desc == "":
			spec.Options.Desc = head.DescHidden()
		case h.Desc != nil:
			spec.Options.Desc = head.DescText(*h.Desc)
		}
		specs = append(specs, spec)
	}

	var timeout layer.Timeout
	if d.TimeoutMS > 0 {
		timeout = layer.Timeout{
			Enabled: true,
			Len:     time.Duration(d.TimeoutMS) * time.Millisecond,
		}
	}

	return hydra.Config{
		Name:         d.Name,
		Mode:         d.Mode,
		Body:         d.Body,
		Heads:        specs,
		Exit:         d.Exit,
		ForeignKeys:  fk,
		Color:        color,
		Timeout:      timeout,
		InvokeOnBody: d.InvokeOnBody,
		Buffer:       layer.BufferScope(d.Buffer),
		Debug:        d.Debug,
		Hint:         d.Hint,
	}, nil
}

// Build constructs the instance this definition describes and
// registers its bindings with the host.
func (d *Definition) Build(host layer.Host) (*hydra.Instance, error) {
	cfg, err := d.Config()
	if err != nil {
		return nil, err
	}
	return hydra.New(cfg, host)
}
