// Package record turns raw telemetry maps into immutable structured values.
//
// A [Struct] is a key-sorted list of fields whose values are scalars,
// vectors or nested structs. [Normalize] accepts any nesting of string-keyed
// maps and never fails; the empty map becomes the empty struct.
package record

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/san-kum/fsim/internal/dynamo"
	"gonum.org/v1/gonum/floats/scalar"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindVector
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindStruct:
		return "struct"
	}
	return "unknown"
}

// Value is one normalized field value.
type Value struct {
	kind   Kind
	scalar any
	vec    []float64
	st     Struct
}

// Field is a key and its value.
type Field struct {
	Key   string
	Value Value
}

// Struct is an immutable structured record.
type Struct struct {
	fields []Field
}

// Empty is the struct with no fields.
var Empty = Struct{}

// Normalize converts a raw record into a Struct.
func Normalize(d dynamo.Record) Struct {
	return fromMap(map[string]any(d))
}

// NormalizeValue normalizes a single value. Mappings become structs,
// numeric slices are copied, everything else passes through.
func NormalizeValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{kind: KindNull}
	case Struct:
		return Value{kind: KindStruct, st: x}
	case Value:
		return x
	case dynamo.Record:
		return Value{kind: KindStruct, st: fromMap(map[string]any(x))}
	case map[string]any:
		return Value{kind: KindStruct, st: fromMap(x)}
	case map[string]float64:
		m := make(map[string]any, len(x))
		for k, f := range x {
			m[k] = f
		}
		return Value{kind: KindStruct, st: fromMap(m)}
	case map[string][]float64:
		m := make(map[string]any, len(x))
		for k, f := range x {
			m[k] = f
		}
		return Value{kind: KindStruct, st: fromMap(m)}
	case dynamo.State:
		return Value{kind: KindVector, vec: append([]float64(nil), x...)}
	case []float64:
		return Value{kind: KindVector, vec: append([]float64(nil), x...)}
	case int:
		return Value{kind: KindScalar, scalar: float64(x)}
	case float32:
		return Value{kind: KindScalar, scalar: float64(x)}
	default:
		return reflectValue(v)
	}
}

// reflectValue covers the mapping and numeric types the switch above does
// not name: string-keyed maps of any element type, other numeric scalars
// and numeric slices or arrays. Other slices are copied one level deep.
func reflectValue(v any) Value {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return Value{kind: KindStruct, st: fromMap(m)}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{kind: KindScalar, scalar: float64(rv.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Value{kind: KindScalar, scalar: float64(rv.Uint())}
	case reflect.Float32, reflect.Float64:
		return Value{kind: KindScalar, scalar: rv.Float()}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Value{kind: KindNull}
		}
		if vec, ok := numericSlice(rv); ok {
			return Value{kind: KindVector, vec: vec}
		}
		if rv.Kind() == reflect.Slice {
			c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
			reflect.Copy(c, rv)
			return Value{kind: KindScalar, scalar: c.Interface()}
		}
	}
	return Value{kind: KindScalar, scalar: v}
}

func numericSlice(rv reflect.Value) ([]float64, bool) {
	out := make([]float64, rv.Len())
	switch rv.Type().Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		for i := range out {
			out[i] = float64(rv.Index(i).Int())
		}
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		for i := range out {
			out[i] = float64(rv.Index(i).Uint())
		}
	case reflect.Float32, reflect.Float64:
		for i := range out {
			out[i] = rv.Index(i).Float()
		}
	default:
		return nil, false
	}
	return out, true
}

func fromMap(m map[string]any) Struct {
	if len(m) == 0 {
		return Empty
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Key: k, Value: NormalizeValue(m[k])}
	}
	return Struct{fields: fields}
}

func (v Value) Kind() Kind { return v.kind }

// Scalar returns the wrapped scalar, or nil for non-scalars.
func (v Value) Scalar() any { return v.scalar }

// Float returns the value as a float64 when it is numeric.
func (v Value) Float() (float64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	switch x := v.scalar.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Vector returns a copy of the vector value.
func (v Value) Vector() ([]float64, bool) {
	if v.kind != KindVector {
		return nil, false
	}
	return append([]float64(nil), v.vec...), true
}

func (v Value) Struct() (Struct, bool) {
	if v.kind != KindStruct {
		return Empty, false
	}
	return v.st, true
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindVector:
		return fmt.Sprint(v.vec)
	case KindStruct:
		return v.st.String()
	}
	return fmt.Sprint(v.scalar)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindVector:
		return json.Marshal(v.vec)
	case KindStruct:
		return v.st.MarshalJSON()
	}
	return json.Marshal(v.scalar)
}

func (s Struct) Len() int { return len(s.fields) }

func (s Struct) IsEmpty() bool { return len(s.fields) == 0 }

func (s Struct) Keys() []string {
	keys := make([]string, len(s.fields))
	for i, f := range s.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the field list in key order.
func (s Struct) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s Struct) Get(key string) (Value, bool) {
	i := sort.Search(len(s.fields), func(i int) bool { return s.fields[i].Key >= key })
	if i < len(s.fields) && s.fields[i].Key == key {
		return s.fields[i].Value, true
	}
	return Value{}, false
}

// Lookup walks nested structs along path.
func (s Struct) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return Value{kind: KindStruct, st: s}, true
	}
	v, ok := s.Get(path[0])
	if !ok {
		return Value{}, false
	}
	if len(path) == 1 {
		return v, true
	}
	inner, ok := v.Struct()
	if !ok {
		return Value{}, false
	}
	return inner.Lookup(path[1:]...)
}

func (s Struct) Float(path ...string) (float64, bool) {
	v, ok := s.Lookup(path...)
	if !ok {
		return 0, false
	}
	return v.Float()
}

func (s Struct) Vector(path ...string) ([]float64, bool) {
	v, ok := s.Lookup(path...)
	if !ok {
		return nil, false
	}
	return v.Vector()
}

// Column is one numeric leaf of a flattened struct.
type Column struct {
	Name  string
	Value float64
}

// Flatten lists every numeric leaf in key order. Nested keys are joined
// with "." and vector elements are suffixed with "[i]".
func (s Struct) Flatten() []Column {
	var out []Column
	s.flatten("", &out)
	return out
}

func (s Struct) flatten(prefix string, out *[]Column) {
	for _, f := range s.fields {
		name := f.Key
		if prefix != "" {
			name = prefix + "." + f.Key
		}
		switch f.Value.kind {
		case KindScalar:
			if x, ok := f.Value.Float(); ok {
				*out = append(*out, Column{Name: name, Value: x})
			}
		case KindVector:
			for i, x := range f.Value.vec {
				*out = append(*out, Column{Name: fmt.Sprintf("%s[%d]", name, i), Value: x})
			}
		case KindStruct:
			f.Value.st.flatten(name, out)
		}
	}
}

// EqualApprox reports whether two structs have the same shape and their
// numeric leaves agree within tol.
func (s Struct) EqualApprox(o Struct, tol float64) bool {
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i, f := range s.fields {
		g := o.fields[i]
		if f.Key != g.Key || !f.Value.equalApprox(g.Value, tol) {
			return false
		}
	}
	return true
}

func (v Value) equalApprox(o Value, tol float64) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindVector:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if !scalar.EqualWithinAbsOrRel(v.vec[i], o.vec[i], tol, tol) {
				return false
			}
		}
		return true
	case KindStruct:
		return v.st.EqualApprox(o.st, tol)
	}
	a, aok := v.Float()
	b, bok := o.Float()
	if aok && bok {
		return scalar.EqualWithinAbsOrRel(a, b, tol, tol)
	}
	return reflect.DeepEqual(v.scalar, o.scalar)
}

func (s Struct) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteString(" = ")
		b.WriteString(f.Value.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (s Struct) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
