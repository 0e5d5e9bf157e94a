package types

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	// Missing is the zero Kind: the value was absent from the document.
	Missing Kind = iota
	Null
	Scalar // number or boolean, kept as source text
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one member of an Object value.
type Field struct {
	Name  string
	Value Value
}

// Value is a JSON value that keeps what encoding/json throws away: the
// source text of numbers and the member order of objects. Descriptor fields
// that are emitted verbatim into build flags are decoded into Values.
type Value struct {
	kind   Kind
	text   string
	items  []Value
	fields []Field
}

// NewScalar returns a number or boolean value with the given source text.
func NewScalar(text string) Value { return Value{kind: Scalar, text: text} }

// NewString returns a string value.
func NewString(s string) Value { return Value{kind: String, text: s} }

// NewArray returns an array value.
func NewArray(items ...Value) Value { return Value{kind: Array, items: items} }

// NewObject returns an object value with members in the given order.
func NewObject(fields ...Field) Value { return Value{kind: Object, fields: fields} }

// ParseValue parses raw JSON into a Value.
func ParseValue(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, fmt.Errorf("invalid JSON value")
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// MustParseValue is ParseValue for literals known to be valid.
func MustParseValue(s string) Value {
	v, err := ParseValue([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Value{kind: Null}
	case gjson.False, gjson.True, gjson.Number:
		return NewScalar(r.Raw)
	case gjson.String:
		return NewString(r.Str)
	}

	if r.IsArray() {
		items := []Value{}
		r.ForEach(func(_, v gjson.Result) bool {
			items = append(items, fromResult(v))
			return true
		})
		return NewArray(items...)
	}

	fields := []Field{}
	r.ForEach(func(k, v gjson.Result) bool {
		fields = append(fields, Field{Name: k.String(), Value: fromResult(v)})
		return true
	})
	return NewObject(fields...)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// IsPresent reports whether the value appeared in the document.
func (v Value) IsPresent() bool { return v.kind != Missing }

// Text returns the source text of a scalar or the content of a string.
func (v Value) Text() string { return v.text }

// Items returns the elements of an array value.
func (v Value) Items() []Value { return v.items }

// Fields returns the members of an object value in source order.
func (v Value) Fields() []Field { return v.fields }

// Len returns the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.fields)
	default:
		return 0
	}
}

// Equal reports whether two values have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.text != o.text ||
		len(v.items) != len(o.items) || len(v.fields) != len(o.fields) {
		return false
	}
	for i := range v.items {
		if !v.items[i].Equal(o.items[i]) {
			return false
		}
	}
	for i := range v.fields {
		if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}
	return true
}
