package render

import (
	"fmt"
	"sort"
	"strings"
)

// Options describe per-request presentation choices that do not belong in
// the form schema.
type Options struct {
	// Action and Method describe where an HTML form posts to.
	Action string
	Method string
	// ShowAllErrors displays errors for untouched fields too, which is what
	// callers want right after a failed submit.
	ShowAllErrors bool
	// Hidden inputs emitted alongside the fields (CSRF tokens and the like).
	Hidden map[string]string
}

// HiddenField is one hidden name/value pair.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden builds a HiddenField from any value.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken is Hidden for anti-forgery tokens.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// WithHidden returns a copy of o with fields merged into Hidden. Blank names
// are dropped; later fields win.
func (o Options) WithHidden(fields ...HiddenField) Options {
	merged := make(map[string]string, len(o.Hidden)+len(fields))
	for name, value := range o.Hidden {
		if name = strings.TrimSpace(name); name != "" {
			merged[name] = value
		}
	}
	for _, field := range fields {
		if field.Name != "" {
			merged[field.Name] = field.Value
		}
	}
	o.Hidden = merged
	return o
}

// HiddenFields lists the hidden inputs sorted by name.
func (o Options) HiddenFields() []HiddenField {
	out := make([]HiddenField, 0, len(o.Hidden))
	for name, value := range o.Hidden {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, HiddenField{Name: name, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
