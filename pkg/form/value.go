package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Value carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged variant holding a single field value. The zero Value is
// Null, which stands for both "undefined" and "null" input, so a lookup on a
// missing map key yields Null without special casing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
}

// Null returns the empty variant.
func Null() Value { return Value{} }

// String wraps a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List wraps an ordered sequence of strings. The items are copied; calling
// List with no arguments yields an empty (but non-null) list.
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the text payload when the value is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Num returns the numeric payload when the value is a number.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Boolean returns the boolean payload when the value is a bool.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Items returns a copy of the list payload when the value is a list.
func (v Value) Items() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out, true
}

// Truthy reports whether the value counts as "set" in a boolean context:
// null, empty text, zero/NaN and false are falsy, every list is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.b
	case KindList:
		return true
	default:
		return false
	}
}

// String coerces the value to text. Null renders as the empty string, lists
// are comma joined.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Clone returns a value that shares no memory with v.
func (v Value) Clone() Value {
	if v.kind == KindList {
		return List(v.list...)
	}
	return v
}

// Interface converts the value into plain Go data (nil, string, float64,
// bool or []any) for consumers that work on untyped maps.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

// FromAny converts decoded JSON/YAML data into a Value. Sequences are
// flattened into string lists; maps are rejected.
func FromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed.Clone(), nil
	case string:
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case int32:
		return Number(float64(typed)), nil
	case uint:
		return Number(float64(typed)), nil
	case uint64:
		return Number(float64(typed)), nil
	case json.Number:
		n, err := typed.Float64()
		if err != nil {
			return Null(), fmt.Errorf("form: invalid number %q: %w", typed.String(), err)
		}
		return Number(n), nil
	case []string:
		return List(typed...), nil
	case []any:
		items := make([]string, 0, len(typed))
		for idx, item := range typed {
			elem, err := FromAny(item)
			if err != nil {
				return Null(), fmt.Errorf("form: list item %d: %w", idx, err)
			}
			if elem.kind == KindList {
				return Null(), fmt.Errorf("form: list item %d: nested lists are not supported", idx)
			}
			items = append(items, elem.String())
		}
		return Value{kind: KindList, list: items}, nil
	default:
		return Null(), fmt.Errorf("form: unsupported value type %T", raw)
	}
}

// MarshalJSON encodes the value as its natural JSON scalar or array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	if v.kind == KindList && v.list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON scalar or array of scalars.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML documents.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// UnmarshalYAML decodes YAML scalars and sequences.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*v = parsed
	return nil
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Values maps field ids to their current value.
type Values map[string]Value

// Get returns the value for id, or Null when absent.
func (v Values) Get(id string) Value {
	if v == nil {
		return Null()
	}
	return v[id]
}

// Clone deep-copies the map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for id, value := range v {
		out[id] = value.Clone()
	}
	return out
}

// Equal reports whether both maps hold the same keys and values.
func (v Values) Equal(other Values) bool {
	if len(v) != len(other) {
		return false
	}
	for id, value := range v {
		cmpValue, ok := other[id]
		if !ok || !value.Equal(cmpValue) {
			return false
		}
	}
	return true
}

// Interface converts the map into untyped data, e.g. for expression
// evaluation or template contexts.
func (v Values) Interface() map[string]any {
	out := make(map[string]any, len(v))
	for id, value := range v {
		out[id] = value.Interface()
	}
	return out
}

// Errors maps field ids to the message of the first failing rule. A missing
// key means the field is currently valid.
type Errors map[string]string

// HasErrors reports whether any field failed validation.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for id, msg := range e {
		out[id] = msg
	}
	return out
}
