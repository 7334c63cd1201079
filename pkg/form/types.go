package form

// FieldType selects the control family of a field. It drives both the
// type-derived default value and the normalization rule.
type FieldType string

const (
	FieldTypeInput    FieldType = "input"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
)

// Known reports whether t belongs to the supported set.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeInput, FieldTypeSelect, FieldTypeCheckbox, FieldTypeTextarea:
		return true
	default:
		return false
	}
}

// Option is one entry of a select field. The first option doubles as the
// implicit default.
type Option struct {
	Label    string `json:"label" yaml:"label"`
	Value    Value  `json:"value" yaml:"value"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Field describes one control. Descriptors are authored externally and are
// treated as immutable for the lifetime of a form instance.
type Field struct {
	ID    string    `json:"id" yaml:"id"`
	Type  FieldType `json:"type" yaml:"type"`
	Label string    `json:"label" yaml:"label"`

	Required     bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Pattern      string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
	// MinLength and MaxLength bound string values in code points; 0 leaves
	// the bound unset.
	MinLength int `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`

	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Default *Value   `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`

	// Condition is a visibility expression over the form values (see
	// pkg/visibility/expr). Renderers evaluate it; validation never does.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Hint        string            `json:"hint,omitempty" yaml:"hint,omitempty"`
	Disabled    bool              `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	ClassName   string            `json:"className,omitempty" yaml:"className,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// DisplayLabel is the subject used in generated error messages.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// Config is a complete form schema.
type Config struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
	SubmitLabel string  `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	CancelLabel string  `json:"cancelLabel,omitempty" yaml:"cancelLabel,omitempty"`
}

// Field returns the first descriptor carrying id.
func (c Config) Field(id string) (Field, bool) {
	for _, field := range c.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}

// FieldIDs lists the field ids in schema order.
func (c Config) FieldIDs() []string {
	ids := make([]string, 0, len(c.Fields))
	for _, field := range c.Fields {
		ids = append(ids, field.ID)
	}
	return ids
}

// Clone deep-copies the config so callers can hand it to an instance without
// sharing option slices or defaults.
func (c Config) Clone() Config {
	out := c
	out.Fields = make([]Field, len(c.Fields))
	for i, field := range c.Fields {
		out.Fields[i] = field.clone()
	}
	return out
}

func (f Field) clone() Field {
	out := f
	if len(f.Options) > 0 {
		out.Options = make([]Option, len(f.Options))
		for i, opt := range f.Options {
			opt.Value = opt.Value.Clone()
			out.Options[i] = opt
		}
	}
	if f.Default != nil {
		def := f.Default.Clone()
		out.Default = &def
	}
	if len(f.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(f.Attributes))
		for k, v := range f.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}
