package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Field is one key/value pair of a map Value. Map fields keep insertion order.
type Field struct {
	Key   string
	Value Value
}

// Value is structured context attached to an entry: null, a scalar, an
// ordered list, or an ordered mapping of string keys. The zero Value is null.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	items  []Value
	fields []Field
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Int returns a numeric Value holding n.
func Int(n int64) Value { return Value{kind: KindNumber, num: float64(n)} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// List returns a list Value. The slice is retained, not copied.
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

// Map returns a map Value with fields in the given order.
func Map(fields ...Field) Value { return Value{kind: KindMap, fields: fields} }

// F is shorthand for building a Field.
func F(key string, v Value) Field { return Field{Key: key, Value: v} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string held by v, or "" for other kinds.
func (v Value) Str() string { return v.str }

// Num returns the number held by v, or 0 for other kinds.
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean held by v, or false for other kinds.
func (v Value) Bool() bool { return v.flag }

// Items returns the list items. The slice is shared with v.
func (v Value) Items() []Value { return v.items }

// Fields returns the map fields in order. The slice is shared with v.
func (v Value) Fields() []Field { return v.fields }

// Len returns the number of list items or map fields.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.items)
	case KindMap:
		return len(v.fields)
	default:
		return 0
	}
}

// Get returns the first field named key.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// maxConvertDepth stops ValueOf on self-referencing pointer graphs.
const maxConvertDepth = 64

// ValueOf converts an arbitrary Go value into a Value. Maps must have string
// keys and are ordered by key. Structs and json.Marshaler implementations are
// converted from their encoding/json form, so json tags apply. Channels,
// functions and complex numbers are rejected with ErrSerialization.
func ValueOf(x any) (Value, error) {
	return valueOf(reflect.ValueOf(x), 0)
}

func valueOf(rv reflect.Value, depth int) (Value, error) {
	if depth > maxConvertDepth {
		return Value{}, &Error{Code: CodeSerialization, Message: "value nested too deeply"}
	}
	if !rv.IsValid() {
		return Null(), nil
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return Null(), nil
	}
	if !rv.CanInterface() {
		return Value{}, &Error{Code: CodeSerialization, Message: fmt.Sprintf("unexported value of type %s", rv.Type())}
	}

	switch x := rv.Interface().(type) {
	case Value:
		return x, nil
	case time.Time:
		return String(x.Format(time.RFC3339)), nil
	case time.Duration:
		return String(x.String()), nil
	case error:
		return String(x.Error()), nil
	case fmt.Stringer:
		return String(x.String()), nil
	case json.Marshaler:
		return fromJSON(x)
	}

	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Pointer, reflect.Interface:
		return valueOf(rv.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := valueOf(rv.Index(i), depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, &Error{Code: CodeSerialization, Message: fmt.Sprintf("unsupported map key type %s", rv.Type().Key())}
		}
		if rv.IsNil() {
			return Null(), nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			item, err := valueOf(rv.MapIndex(k), depth+1)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, F(k.String(), item))
		}
		return Map(fields...), nil
	case reflect.Struct:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return Value{}, &Error{Code: CodeSerialization, Message: fmt.Sprintf("encode %s", rv.Type()), Cause: err}
		}
		return decodeJSON(raw)
	default:
		return Value{}, &Error{Code: CodeSerialization, Message: fmt.Sprintf("unsupported value type %s", rv.Type())}
	}
}

func fromJSON(m json.Marshaler) (Value, error) {
	raw, err := m.MarshalJSON()
	if err != nil {
		return Value{}, &Error{Code: CodeSerialization, Message: "marshal json", Cause: err}
	}
	return decodeJSON(raw)
}

func decodeJSON(raw []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(raw); err != nil {
		return Value{}, &Error{Code: CodeSerialization, Message: "decode json", Cause: err}
	}
	return v, nil
}

// MarshalJSON encodes the Value, keeping map field order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindString:
		raw, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindNumber:
		raw, err := json.Marshal(v.num)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.flag))
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := f.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

// UnmarshalJSON decodes any JSON document, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data after JSON value")
	}
	*v = parsed
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decode number %s: %w", t, err)
		}
		return Number(n), nil
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
				return Value{}, err
			}
			return List(items...), nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, F(key, item))
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Map(fields...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}
