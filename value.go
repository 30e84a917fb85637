package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Kind enumerates the JSON shapes a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindMap
	KindList
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
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a JSON-representable parameter value. The zero Value is null.
// Numbers keep their literal text so integers survive a write/read cycle
// unchanged.
type Value struct {
	kind Kind
	b    bool
	text string
	m    Set
	l    []Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Int wraps i as a number.
func Int(i int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(i, 10)} }

// Float wraps f as a number. NaN and infinities cannot be encoded and will
// fail on write.
func Float(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number wraps a JSON number literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, text: n.String()} }

// Map wraps a copy of set.
func Map(set Set) Value {
	return Value{kind: KindMap, m: set.Clone()}
}

// List wraps copies of items.
func List(items ...Value) Value {
	l := make([]Value, len(items))
	for i, item := range items {
		l[i] = item.Clone()
	}
	return Value{kind: KindList, l: l}
}

// Kind reports the shape held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsInt returns the number as an int64 when it has no fractional part.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if i, err := strconv.ParseInt(v.text, 10, 64); err == nil {
		return i, true
	}
	f, ok := v.AsFloat()
	if !ok || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.text), true
}

// AsMap returns a copy of the nested mapping.
func (v Value) AsMap() (Set, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m.Clone(), true
}

// AsList returns a copy of the list items.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.l))
	for i, item := range v.l {
		out[i] = item.Clone()
	}
	return out, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	case KindList:
		l := make([]Value, len(v.l))
		for i, item := range v.l {
			l[i] = item.Clone()
		}
		return Value{kind: KindList, l: l}
	default:
		return v
	}
}

// Equal compares two values deeply. Numbers compare numerically, so 1 and 1.0
// are equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.text == other.text
	case KindNumber:
		if v.text == other.text {
			return true
		}
		a, okA := v.AsFloat()
		b, okB := other.AsFloat()
		return okA && okB && a == b
	case KindMap:
		return v.m.Equal(other.m)
	case KindList:
		if len(v.l) != len(other.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(other.l[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Any converts v into plain Go values: nil, bool, float64 (or int64 for
// integral literals), string, map[string]any and []any.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.text
	case KindNumber:
		if i, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return i
		}
		f, _ := v.AsFloat()
		return f
	case KindMap:
		return v.m.Map()
	case KindList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// String renders v as compact JSON.
func (v Value) String() string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<invalid %s>", v.kind)
	}
	return string(raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.text)
	case KindNumber:
		if !json.Valid([]byte(v.text)) {
			return nil, fmt.Errorf("params: invalid number %q", v.text)
		}
		return []byte(v.text), nil
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(map[string]Value(v.m))
	case KindList:
		if v.l == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.l)
	default:
		return nil, fmt.Errorf("params: unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts plain Go values into a Value. It accepts the shapes
// produced by encoding/json plus Go numeric types, Value and Set.
func FromAny(input any) (Value, error) {
	switch typed := input.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed.Clone(), nil
	case Set:
		return Map(typed), nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case json.Number:
		if _, err := typed.Float64(); err != nil {
			return Value{}, fmt.Errorf("params: invalid number %q", typed)
		}
		return Number(typed), nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return Value{}, fmt.Errorf("params: %v is not representable in JSON", typed)
		}
		return Float(typed), nil
	case float32:
		return FromAny(float64(typed))
	case int:
		return Int(int64(typed)), nil
	case int8:
		return Int(int64(typed)), nil
	case int16:
		return Int(int64(typed)), nil
	case int32:
		return Int(int64(typed)), nil
	case int64:
		return Int(typed), nil
	case uint:
		return Number(json.Number(strconv.FormatUint(uint64(typed), 10))), nil
	case uint8:
		return Int(int64(typed)), nil
	case uint16:
		return Int(int64(typed)), nil
	case uint32:
		return Int(int64(typed)), nil
	case uint64:
		return Number(json.Number(strconv.FormatUint(typed, 10))), nil
	case map[string]any:
		set := make(Set, len(typed))
		for key, item := range typed {
			value, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("params: key %q: %w", key, err)
			}
			set[key] = value
		}
		return Value{kind: KindMap, m: set}, nil
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			value, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("params: index %d: %w", i, err)
			}
			items[i] = value
		}
		return Value{kind: KindList, l: items}, nil
	default:
		return fromReflect(reflect.ValueOf(input))
	}
}

// MustFromAny is FromAny for static inputs such as default tables.
func MustFromAny(input any) Value {
	v, err := FromAny(input)
	if err != nil {
		panic(err)
	}
	return v
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FromAny(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return FromAny(rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return FromAny(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return FromAny(out)
	}
	return Value{}, fmt.Errorf("params: unsupported value type %s", rv.Type())
}
