package form

import (
	"regexp"
	"strings"
	"unicode"
)

// InitialValues derives the baseline value of every field: an explicit
// default wins, then false for checkboxes, then the first select option,
// else the empty string. When ids repeat the first descriptor wins, as in
// Config.Field.
func InitialValues(fields []Field) Values {
	values := make(Values, len(fields))
	for _, field := range fields {
		if _, seen := values[field.ID]; seen {
			continue
		}
		switch {
		case field.Default != nil:
			values[field.ID] = field.Default.Clone()
		case field.Type == FieldTypeCheckbox:
			values[field.ID] = Bool(false)
		case field.Type == FieldTypeSelect && len(field.Options) > 0:
			values[field.ID] = field.Options[0].Value.Clone()
		default:
			values[field.ID] = String("")
		}
	}
	return values
}

// Normalize coerces raw renderer input into the canonical representation for
// the field type.
func Normalize(fieldType FieldType, value Value) Value {
	if value.IsNull() {
		if fieldType == FieldTypeCheckbox {
			return Bool(false)
		}
		return String("")
	}

	switch fieldType {
	case FieldTypeCheckbox:
		return Bool(value.Truthy())
	case FieldTypeInput, FieldTypeTextarea:
		return String(strings.TrimSpace(value.String()))
	default:
		if !value.Truthy() {
			return String("")
		}
		return value.Clone()
	}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+\d\s\-()]+$`)
)

// IsValidEmail performs a shallow shape check (local@domain.tld).
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone accepts digits, spaces, dashes, parentheses and a leading
// plus, with at least ten digits overall.
func IsValidPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}
