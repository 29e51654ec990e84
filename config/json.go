package config

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// LoadJSON parses hydra definitions from JSON. Heads use the compact
// tuple form [lhs, keys, opts]: lhs is a string, keys is a string or
// null, and the optional opts object carries desc, exit, private,
// remap and mode. A desc of false hides the head; desc true has no
// meaning and is rejected.
func LoadJSON(data []byte) ([]Definition, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrBadDefinition)
	}

	root := gjson.ParseBytes(data)
	list := root.Get("hydras")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: top-level \"hydras\" array missing", ErrBadDefinition)
	}

	var defs []Definition
	var err error
	list.ForEach(func(_, item gjson.Result) bool {
		var def Definition
		def, err = parseJSONDefinition(item)
		if err != nil {
			return false
		}
		defs = append(defs, def)
		return true
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func parseJSONDefinition(item gjson.Result) (Definition, error) {
	def := Definition{
		Name:         item.Get("name").String(),
		Body:         item.Get("body").String(),
		Color:        item.Get("color").String(),
		ForeignKeys:  item.Get("foreign_keys").String(),
		Exit:         item.Get("exit").Bool(),
		InvokeOnBody: item.Get("invoke_on_body").Bool(),
		Hint:         item.Get("hint").String(),
		TimeoutMS:    int(item.Get("timeout_ms").Int()),
		Buffer:       int(item.Get("buffer").Int()),
		Debug:        item.Get("debug").Bool(),
	}
	for _, m := range item.Get("mode").Array() {
		def.Mode = append(def.Mode, m.String())
	}

	heads := item.Get("heads")
	if !heads.IsArray() {
		return def, fmt.Errorf("%w: %s: \"heads\" must be an array", ErrBadDefinition, def.Name)
	}

	var err error
	heads.ForEach(func(_, tuple gjson.Result) bool {
		var hd HeadDef
		hd, err = parseJSONHead(def.Name, tuple)
		if err != nil {
			return false
		}
		def.Heads = append(def.Heads, hd)
		return true
	})
	return def, err
}

// parseJSONHead decodes one [lhs, keys, opts] tuple with explicit
// type checks, since every slot but lhs is polymorphic.
func parseJSONHead(name string, tuple gjson.Result) (HeadDef, error) {
	var hd HeadDef

	if !tuple.IsArray() {
		return hd, fmt.Errorf("%w: %s: head must be a [lhs, keys, opts] tuple", ErrBadDefinition, name)
	}
	parts := tuple.Array()
	if len(parts) == 0 || len(parts) > 3 {
		return hd, fmt.Errorf("%w: %s: head tuple needs 1 to 3 elements", ErrBadDefinition, name)
	}

	if parts[0].Type != gjson.String {
		return hd, fmt.Errorf("%w: %s: head lhs must be a string", ErrBadDefinition, name)
	}
	hd.Lhs = parts[0].String()

	if len(parts) > 1 {
		switch parts[1].Type {
		case gjson.String:
			hd.Keys = parts[1].String()
		case gjson.Null:
		default:
			return hd, fmt.Errorf("%w: %s: head %q action must be a string or null", ErrBadDefinition, name, hd.Lhs)
		}
	}

	if len(parts) > 2 {
		opts := parts[2]
		if !opts.IsObject() {
			return hd, fmt.Errorf("%w: %s: head %q opts must be an object", ErrBadDefinition, name, hd.Lhs)
		}
		if desc := opts.Get("desc"); desc.Exists() {
			switch {
			case desc.Type == gjson.String:
				s := desc.String()
				hd.Desc = &s
			case desc.Type == gjson.False:
				hd.Hidden = true
			default:
				return hd, fmt.Errorf("%w: %s: head %q desc must be a string or false", ErrBadDefinition, name, hd.Lhs)
			}
		}
		if exit := opts.Get("exit"); exit.Exists() {
			if exit.Type != gjson.True && exit.Type != gjson.False {
				return hd, fmt.Errorf("%w: %s: head %q exit must be a boolean", ErrBadDefinition, name, hd.Lhs)
			}
			v := exit.Bool()
			hd.Exit = &v
		}
		hd.Private = opts.Get("private").Bool()
		hd.Remap = opts.Get("remap").Bool()
		for _, m := range opts.Get("mode").Array() {
			hd.Mode = append(hd.Mode, m.String())
		}
	}

	return hd, nil
}
