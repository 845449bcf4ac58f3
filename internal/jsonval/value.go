// Package jsonval models arbitrary JSON documents as a tagged dynamic value.
//
// Upstream generation providers return wildly different response shapes, so
// the service never decodes into fixed structs. A Value carries one of the
// six JSON kinds and preserves object member order from the wire, which keeps
// "first match" traversals deterministic.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies which JSON kind a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "invalid"
	}
}

// Member is one key/value pair of an object, in document order.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable dynamic JSON value. The zero value is JSON null.
type Value struct {
	kind    Kind
	boolVal bool
	numVal  float64
	strVal  string
	arr     []Value
	obj     []Member
}

// NullValue returns the JSON null value.
func NullValue() Value { return Value{} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: Bool, boolVal: b} }

// NumberValue wraps a float64.
func NumberValue(n float64) Value { return Value{kind: Number, numVal: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: String, strVal: s} }

// ArrayValue wraps an ordered list of values.
func ArrayValue(items ...Value) Value { return Value{kind: Array, arr: items} }

// ObjectValue wraps ordered members.
func ObjectValue(members ...Member) Value { return Value{kind: Object, obj: members} }

// Kind reports the JSON kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// Str returns the string payload when v is a JSON string.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.strVal, true
}

// BoolVal returns the bool payload when v is a JSON bool.
func (v Value) BoolVal() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.boolVal, true
}

// Float64 returns the numeric payload when v is a JSON number.
func (v Value) Float64() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.numVal, true
}

// Field returns the value of the first member named key in an object.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// FieldString returns the string payload of the named member, when present.
func (v Value) FieldString(key string) (string, bool) {
	field, ok := v.Field(key)
	if !ok {
		return "", false
	}
	return field.Str()
}

// Members returns object members in document order, or nil for other kinds.
func (v Value) Members() []Member { return v.obj }

// Items returns array elements in order, or nil for other kinds.
func (v Value) Items() []Value { return v.arr }

// Walk visits v and all nested values depth-first in document order. The
// visitor returns false to stop early; Walk reports whether traversal ran to
// completion.
func (v Value) Walk(visit func(Value) bool) bool {
	if !visit(v) {
		return false
	}
	switch v.kind {
	case Array:
		for _, item := range v.arr {
			if !item.Walk(visit) {
				return false
			}
		}
	case Object:
		for _, m := range v.obj {
			if !m.Value.Walk(visit) {
				return false
			}
		}
	}
	return true
}

// Interface converts v to the equivalent any-typed value, losing member order.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.boolVal
	case Number:
		return v.numVal
	case String:
		return v.strVal
	case Array:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.obj))
		for _, m := range v.obj {
			if _, exists := out[m.Key]; exists {
				continue
			}
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON re-encodes v preserving object member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.boolVal))
	case Number:
		buf.WriteString(strconv.FormatFloat(v.numVal, 'g', -1, 64))
	case String:
		encoded, err := json.Marshal(v.strVal)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// Decode parses a JSON document into a Value, preserving object member order.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	// Reject trailing content after the first document.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("jsonval: trailing data after document")
	}
	return value, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("jsonval: %w", err)
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("jsonval: parse number %q: %w", t.String(), err)
		}
		return NumberValue(f), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("jsonval: close array: %w", err)
			}
			return Value{kind: Array, arr: items}, nil
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("jsonval: object key: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("jsonval: non-string object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("jsonval: close object: %w", err)
			}
			return Value{kind: Object, obj: members}, nil
		}
	}
	return Value{}, fmt.Errorf("jsonval: unexpected token %v", tok)
}
