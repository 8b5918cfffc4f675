// Package value defines the tagged cell value used throughout the pipeline.
//
// A dataset is an ordered slice of rows; a row is an ordered slice of cells.
// Every cell is one of: string, number, boolean, null, object, or array.
// Modeling the cell as an explicit sum type keeps every coercion branch in the
// operators an exhaustive, compile-checked decision instead of ad hoc
// reflection over interface{}.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

// String implements fmt.Stringer for diagnostics.
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
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single dataset cell. The zero value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	obj  map[string]Value
	arr  []Value
}

// Null returns the null cell.
func Null() Value { return Value{} }

// Str returns a string cell.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Num returns a numeric cell.
func Num(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Object returns a nested-object cell.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// Array returns an array cell.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Kind reports the variant held.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload; ok is false for other kinds.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload; ok is false for other kinds.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload; ok is false for other kinds.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsObject returns the object payload; ok is false for other kinds.
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// AsArray returns the array payload; ok is false for other kinds.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Field returns the named field of an object cell. Missing fields and
// non-object cells resolve to null, never an error.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Null()
	}
	return v.obj[name]
}

// Display renders the cell the way it would appear in output: numbers without
// exponent noise, booleans as true/false, null as the empty string, and
// object/array cells as compact JSON.
func (v Value) Display() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindObject, KindArray:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// FormatNumber renders a float without a trailing ".0" for integral values.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Key returns a canonical string usable as a grouping or distinct key. Object
// keys are serialized with sorted field names so identical objects always
// produce identical keys.
func (v Value) Key() string {
	switch v.kind {
	case KindObject:
		fields := make([]string, 0, len(v.obj))
		for k := range v.obj {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			sb.WriteString(v.obj[k].Key())
		}
		sb.WriteByte('}')
		return sb.String()
	case KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(item.Key())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindString:
		return strconv.Quote(v.str)
	default:
		return v.Display()
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindObject:
		return json.Marshal(v.obj)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	default:
		return nil, fmt.Errorf("marshal: unknown value kind %v", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler, mapping arbitrary JSON onto the
// cell variants.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromDecoded(raw)
	return nil
}

func fromDecoded(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case string:
		return Str(t)
	case bool:
		return Bool(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Str(t.String())
		}
		return Num(f)
	case float64:
		return Num(t)
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = fromDecoded(item)
		}
		return Object(fields)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = fromDecoded(item)
		}
		return Array(items)
	default:
		return Null()
	}
}

// FromAny converts a dynamically typed Go value (from JSON decoding, parquet
// row maps, or Arrow readers) into a Value.
func FromAny(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return Str(t)
	case bool:
		return Bool(t)
	case float64:
		return Num(t)
	case float32:
		return Num(float64(t))
	case int:
		return Num(float64(t))
	case int8:
		return Num(float64(t))
	case int16:
		return Num(float64(t))
	case int32:
		return Num(float64(t))
	case int64:
		return Num(float64(t))
	case uint:
		return Num(float64(t))
	case uint8:
		return Num(float64(t))
	case uint16:
		return Num(float64(t))
	case uint32:
		return Num(float64(t))
	case uint64:
		return Num(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Str(t.String())
		}
		return Num(f)
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = FromAny(item)
		}
		return Object(fields)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Array(items)
	default:
		return Str(fmt.Sprint(t))
	}
}

// Row is an ordered sequence of cells; the same index across all rows of a
// dataset refers to the same logical column.
type Row []Value

// Clone returns a copy of the row safe to extend or overwrite.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Dataset is an ordered sequence of rows of equal width.
type Dataset []Row

// Rows is a convenience constructor for literals in tests.
func Rows(rows ...Row) Dataset { return rows }

// HeaderRow converts column names into a row of string cells for prepending
// to a finalized dataset.
func HeaderRow(columns []string) Row {
	row := make(Row, len(columns))
	for i, c := range columns {
		row[i] = Str(c)
	}
	return row
}
