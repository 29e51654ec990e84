// Package hint builds the display model shown while a hydra instance
// is active: an ordered listing of its heads for a popup or a compact
// one-line form for the statusline.
package hint

import (
	"strings"

	"github.com/dshills/hydra/head"
)

// Hint is the rendered head listing of one instance.
type Hint struct {
	// Name is the instance name, shown as a title when present.
	Name string

	// Lines is the popup rendering, one line per row.
	Lines []string

	// Statusline is the compact one-line rendering.
	Statusline string
}

// New builds an auto-generated hint from the compiled heads. Heads
// with the explicit no-description marker are kept out of the
// listing; everything else appears in display order.
func New(name string, heads []*head.Head) *Hint {
	entries := make([]string, 0, len(heads))
	for _, h := range heads {
		if h.Desc.Hidden {
			continue
		}
		if h.Desc.Text != "" {
			entries = append(entries, h.Lhs+": "+h.Desc.Text)
		} else {
			entries = append(entries, h.Lhs)
		}
	}

	status := strings.Join(entries, ", ")
	if name != "" {
		status = name + ": " + status
	}

	lines := make([]string, 0, len(entries)+1)
	if name != "" {
		lines = append(lines, name)
	}
	lines = append(lines, entries...)

	return &Hint{
		Name:       name,
		Lines:      lines,
		Statusline: status,
	}
}

// FromTemplate builds a hint from a user-supplied template. A
// placeholder of the form _x_ names the head bound to x and renders
// as [x]. Heads not referenced by the template and not hidden are
// appended as an extra auto-generated line.
func FromTemplate(name, template string, heads []*head.Head) *Hint {
	referenced := make(map[string]bool)

	var sb strings.Builder
	rest := template
	for {
		start := strings.IndexByte(rest, '_')
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '_')
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		end += start + 1

		inner := rest[start+1 : end]
		if inner == "" || strings.ContainsAny(inner, " \t\n") {
			// Not a placeholder, keep the underscore literally.
			sb.WriteString(rest[:start+1])
			rest = rest[start+1:]
			continue
		}

		sb.WriteString(rest[:start])
		sb.WriteString("[" + inner + "]")
		referenced[inner] = true
		rest = rest[end+1:]
	}

	lines := strings.Split(sb.String(), "\n")

	var extra []string
	for _, h := range heads {
		if h.Desc.Hidden || referenced[h.Lhs] {
			continue
		}
		if h.Desc.Text != "" {
			extra = append(extra, h.Lhs+": "+h.Desc.Text)
		} else {
			extra = append(extra, h.Lhs)
		}
	}
	if len(extra) > 0 {
		lines = append(lines, strings.Join(extra, ", "))
	}

	return &Hint{
		Name:       name,
		Lines:      lines,
		Statusline: strings.Join(lines, " | "),
	}
}
