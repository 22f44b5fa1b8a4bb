// Package normalize recovers well-defined records from loosely structured
// upstream payloads: policies, eligibility verdicts, chat turns, session ids
// and discovered schemes.
//
// Everything in this package works on Value, an ordered JSON tree. Object
// members keep the order they had in the source text, which several lookups
// ("first string member") depend on.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the type tag of a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// ErrInvalidJSON is returned by Parse for text that is not a single JSON value
var ErrInvalidJSON = errors.New("invalid json")

// Member is a key/value pair of an object
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	boolean bool
	number  string
	str     string
	items   []Value
	members []Member
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number wraps a number given as JSON number text
func Number(raw string) Value { return Value{kind: KindNumber, number: raw} }

// Int wraps an integer
func Int(n int) Value { return Number(strconv.Itoa(n)) }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array builds an array of the given items
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Object builds an object from members. A repeated key keeps its first
// position and its last value.
func Object(members ...Member) Value {
	out := make([]Member, 0, len(members))
	seen := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := seen[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, members: out}
}

// M is shorthand for building a Member
func M(key string, v Value) Member { return Member{Key: key, Value: v} }

// Parse decodes text holding exactly one JSON value
func Parse(text string) (Value, error) {
	if strings.TrimSpace(text) == "" || !gjson.Valid(text) {
		return Value{}, ErrInvalidJSON
	}
	return fromResult(gjson.Parse(text)), nil
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(strings.TrimSpace(r.Raw))
	case gjson.String:
		return String(r.Str)
	}

	if r.IsArray() {
		items := make([]Value, 0)
		r.ForEach(func(_, v gjson.Result) bool {
			items = append(items, fromResult(v))
			return true
		})
		return Array(items...)
	}

	members := make([]Member, 0)
	r.ForEach(func(k, v gjson.Result) bool {
		members = append(members, Member{Key: k.Str, Value: fromResult(v)})
		return true
	})
	return Object(members...)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsObject() bool { return v.kind == KindObject }
func (v Value) IsArray() bool { return v.kind == KindArray }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) Items() []Value { return v.items }
func (v Value) Members() []Member { return v.members }

// Str returns the string content when v is a string
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Boolean returns the boolean content when v is a bool
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// Len is the number of items or members; zero for scalars
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	}
	return 0
}

// Get looks up an object member by exact key
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether an object carries key, whatever its value
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// First returns the first array item
func (v Value) First() (Value, bool) {
	if v.kind != KindArray || len(v.items) == 0 {
		return Value{}, false
	}
	return v.items[0], true
}

// Truthy follows JavaScript truthiness, which is what upstream payload
// producers assume when checking fields.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.boolean
	case KindNumber:
		f, err := strconv.ParseFloat(v.number, 64)
		return err == nil && f != 0
	case KindString:
		return v.str != ""
	}
	return true
}

// Text renders scalars as plain text and containers as compact JSON.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber:
		return v.number
	case KindString:
		return v.str
	}
	b, _ := v.MarshalJSON()
	return string(b)
}

// MarshalJSON encodes v keeping object member order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes data into an ordered Value
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		buf.WriteString(v.number)
	case KindString:
		return encodeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
