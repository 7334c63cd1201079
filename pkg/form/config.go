package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ConfigError describes one structural problem in a Config.
type ConfigError struct {
	FormID  string
	FieldID string
	Reason  string
}

func (e ConfigError) Error() string {
	if e.FieldID == "" {
		return fmt.Sprintf("form %q: %s", e.FormID, e.Reason)
	}
	return fmt.Sprintf("form %q field %q: %s", e.FormID, e.FieldID, e.Reason)
}

// Validate checks the invariants the engine relies on but never re-checks at
// runtime: non-empty unique field ids, a known type, compilable patterns and
// coherent length bounds. All problems are reported together.
func (c Config) Validate() error {
	var issues []error
	add := func(fieldID, format string, args ...any) {
		issues = append(issues, ConfigError{
			FormID:  c.ID,
			FieldID: fieldID,
			Reason:  fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(c.ID) == "" {
		add("", "form id is required")
	}

	seen := make(map[string]struct{}, len(c.Fields))
	for idx, field := range c.Fields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			add("", "field at index %d has an empty id", idx)
			continue
		}
		if id != field.ID {
			add(field.ID, "id has surrounding whitespace")
		}
		if _, dup := seen[id]; dup {
			add(id, "duplicate field id")
		}
		seen[id] = struct{}{}

		if !field.Type.Known() {
			add(id, "unknown field type %q", field.Type)
		}
		if field.Pattern != "" {
			if _, err := compilePattern(field.Pattern); err != nil {
				add(id, "invalid pattern: %v", err)
			}
		}
		if field.MinLength < 0 || field.MaxLength < 0 {
			add(id, "length bounds must not be negative")
		}
		if field.MinLength > 0 && field.MaxLength > 0 && field.MinLength > field.MaxLength {
			add(id, "minLength %d exceeds maxLength %d", field.MinLength, field.MaxLength)
		}
		if field.Type == FieldTypeSelect && len(field.Options) == 0 && field.Default == nil {
			add(id, "select field needs options or a defaultValue")
		}
	}

	return errors.Join(issues...)
}

// compilePattern anchors the expression so the whole value has to match.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}
