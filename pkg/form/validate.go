package form

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule names the validation rule a value failed.
type Rule string

const (
	RuleNone      Rule = ""
	RuleRequired  Rule = "required"
	RuleMinLength Rule = "minLength"
	RuleMaxLength Rule = "maxLength"
	RulePattern   Rule = "pattern"
)

// Violation is the outcome of checking one field. The zero Violation means
// the field is valid.
type Violation struct {
	Rule    Rule
	Message string
}

func (v Violation) OK() bool { return v.Rule == RuleNone }

// Messages holds one template per rule. Templates may reference {label},
// {min} and {max}.
type Messages struct {
	Required  string `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength string `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength string `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// DefaultMessages returns the stock templates.
func DefaultMessages() Messages {
	return Messages{
		Required:  "{label} - обязательное поле",
		MinLength: "{label} - минимум {min} символов",
		MaxLength: "{label} - максимум {max} символов",
		Pattern:   "{label} - некорректный формат",
	}
}

func (m Messages) merge(over Messages) Messages {
	if over.Required != "" {
		m.Required = over.Required
	}
	if over.MinLength != "" {
		m.MinLength = over.MinLength
	}
	if over.MaxLength != "" {
		m.MaxLength = over.MaxLength
	}
	if over.Pattern != "" {
		m.Pattern = over.Pattern
	}
	return m
}

func (m Messages) format(template string, field Field) string {
	return strings.NewReplacer(
		"{label}", field.DisplayLabel(),
		"{min}", strconv.Itoa(field.MinLength),
		"{max}", strconv.Itoa(field.MaxLength),
	).Replace(template)
}

// Validator evaluates field rules with a fixed message catalog. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	messages Messages
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMessages overrides individual templates; empty entries keep the
// defaults.
func WithMessages(messages Messages) ValidatorOption {
	return func(v *Validator) {
		v.messages = v.messages.merge(messages)
	}
}

// NewValidator builds a validator using the default catalog plus overrides.
func NewValidator(options ...ValidatorOption) *Validator {
	v := &Validator{messages: DefaultMessages()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

var defaultValidator = NewValidator()

// Messages returns the active catalog.
func (v *Validator) Messages() Messages {
	if v == nil {
		return DefaultMessages()
	}
	return v.messages
}

// Check runs the rules in priority order (required, minLength, maxLength,
// pattern) and stops at the first failure.
func (v *Validator) Check(field Field, value Value) Violation {
	messages := v.Messages()

	if field.Required && isEmpty(field, value) {
		return Violation{Rule: RuleRequired, Message: messages.format(messages.Required, field)}
	}

	text, isString := value.Str()
	if !isString {
		return Violation{}
	}

	length := utf8.RuneCountInString(text)
	if field.MinLength > 0 && length < field.MinLength {
		return Violation{Rule: RuleMinLength, Message: messages.format(messages.MinLength, field)}
	}
	if field.MaxLength > 0 && length > field.MaxLength {
		return Violation{Rule: RuleMaxLength, Message: messages.format(messages.MaxLength, field)}
	}

	if field.Pattern != "" && text != "" && !matchesPattern(field.Pattern, text) {
		if field.ErrorMessage != "" {
			return Violation{Rule: RulePattern, Message: field.ErrorMessage}
		}
		return Violation{Rule: RulePattern, Message: messages.format(messages.Pattern, field)}
	}

	return Violation{}
}

// ValidateField returns the message of the first failing rule, or "" when
// the value is acceptable.
func (v *Validator) ValidateField(field Field, value Value) string {
	return v.Check(field, value).Message
}

// ValidateForm checks every field in schema order against values; a missing
// key is treated as Null. Only failing fields appear in the result, and a
// repeated id is judged by its first descriptor.
func (v *Validator) ValidateForm(fields []Field, values Values) Errors {
	errs := make(Errors)
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if _, dup := seen[field.ID]; dup {
			continue
		}
		seen[field.ID] = struct{}{}
		if violation := v.Check(field, values.Get(field.ID)); !violation.OK() {
			errs[field.ID] = violation.Message
		}
	}
	return errs
}

// Check applies the default catalog.
func Check(field Field, value Value) Violation {
	return defaultValidator.Check(field, value)
}

// ValidateField applies the default catalog.
func ValidateField(field Field, value Value) string {
	return defaultValidator.ValidateField(field, value)
}

// ValidateForm applies the default catalog.
func ValidateForm(fields []Field, values Values) Errors {
	return defaultValidator.ValidateForm(fields, values)
}

func isEmpty(field Field, value Value) bool {
	switch value.Kind() {
	case KindNull:
		return true
	case KindString:
		text, _ := value.Str()
		return text == ""
	case KindBool:
		b, _ := value.Boolean()
		return !b && field.Type == FieldTypeCheckbox
	case KindList:
		items, _ := value.Items()
		return len(items) == 0
	default:
		return false
	}
}

// matchesPattern compiles on every call; schemas are small and patterns are
// validated up front by Config.Validate. A pattern that does not compile
// never matches.
func matchesPattern(pattern, text string) bool {
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
