package param

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Type is the declared storage type of a parameter.
type Type uint8

const (
	TypeUint8 Type = iota
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeFloat
)

var typeNames = [...]string{"uint8", "int8", "uint16", "int16", "uint32", "int32", "float"}

func (t Type) String() string {
	if t.valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Size returns the storage size in bytes.
func (t Type) Size() int {
	switch t {
	case TypeUint8, TypeInt8:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	default:
		return 4
	}
}

func (t Type) valid() bool  { return t <= TypeFloat }
func (t Type) signed() bool { return t == TypeInt8 || t == TypeInt16 || t == TypeInt32 }

// ParseType resolves a name produced by Type.String.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Number is the set of Go types a parameter can be backed by.
type Number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~float32
}

func typeOf[T Number]() (Type, bool) {
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Uint8:
		return TypeUint8, true
	case reflect.Int8:
		return TypeInt8, true
	case reflect.Uint16:
		return TypeUint16, true
	case reflect.Int16:
		return TypeInt16, true
	case reflect.Uint32:
		return TypeUint32, true
	case reflect.Int32:
		return TypeInt32, true
	case reflect.Float32:
		return TypeFloat, true
	}
	return 0, false
}

// Value is a parameter value tagged with its type. The payload is held in
// the canonical 32-bit form: integers zero- or sign-extended, floats as
// their IEEE-754 bit pattern.
type Value struct {
	typ  Type
	bits uint32
}

func Uint8(v uint8) Value   { return Value{TypeUint8, uint32(v)} }
func Int8(v int8) Value     { return Value{TypeInt8, uint32(int32(v))} }
func Uint16(v uint16) Value { return Value{TypeUint16, uint32(v)} }
func Int16(v int16) Value   { return Value{TypeInt16, uint32(int32(v))} }
func Uint32(v uint32) Value { return Value{TypeUint32, v} }
func Int32(v int32) Value   { return Value{TypeInt32, uint32(v)} }
func Float(v float32) Value { return Value{TypeFloat, math.Float32bits(v)} }

// FromBits rebuilds a Value from its canonical 32-bit form, as written by
// a Store. Bits above the type's width are discarded.
func FromBits(t Type, bits uint32) (Value, error) {
	switch t {
	case TypeUint8:
		bits &= 0xFF
	case TypeUint16:
		bits &= 0xFFFF
	case TypeInt8:
		bits = uint32(int32(int8(bits)))
	case TypeInt16:
		bits = uint32(int32(int16(bits)))
	case TypeUint32, TypeInt32, TypeFloat:
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, uint8(t))
	}
	return Value{typ: t, bits: bits}, nil
}

// ParseValue parses s as a value of type t. Integers accept any base
// prefix understood by strconv.
func ParseValue(t Type, s string) (Value, error) {
	switch t {
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, err
		}
		return Float(float32(f)), nil
	case TypeInt8, TypeInt16, TypeInt32:
		n, err := strconv.ParseInt(s, 0, t.Size()*8)
		if err != nil {
			return Value{}, err
		}
		return FromBits(t, uint32(n))
	case TypeUint8, TypeUint16, TypeUint32:
		n, err := strconv.ParseUint(s, 0, t.Size()*8)
		if err != nil {
			return Value{}, err
		}
		return FromBits(t, uint32(n))
	}
	return Value{}, fmt.Errorf("%w: %d", ErrInvalidType, uint8(t))
}

func valueOf[T Number](x T, t Type) Value {
	switch {
	case t == TypeFloat:
		return Float(float32(x))
	case t.signed():
		return Value{typ: t, bits: uint32(int32(x))}
	default:
		return Value{typ: t, bits: uint32(x)}
	}
}

func fromValue[T Number](v Value) T {
	switch {
	case v.typ == TypeFloat:
		return T(math.Float32frombits(v.bits))
	case v.typ.signed():
		return T(int32(v.bits))
	default:
		return T(v.bits)
	}
}

func (v Value) Type() Type { return v.typ }

// Bits returns the canonical 32-bit representation.
func (v Value) Bits() uint32 { return v.bits }

func (v Value) Uint32() uint32 {
	if v.typ == TypeFloat {
		return uint32(v.Float32())
	}
	return v.bits
}

func (v Value) Int32() int32 {
	if v.typ == TypeFloat {
		return int32(v.Float32())
	}
	return int32(v.bits)
}

func (v Value) Float32() float32 {
	switch {
	case v.typ == TypeFloat:
		return math.Float32frombits(v.bits)
	case v.typ.signed():
		return float32(int32(v.bits))
	default:
		return float32(v.bits)
	}
}

func (v Value) Float64() float64 {
	switch {
	case v.typ == TypeFloat:
		return float64(math.Float32frombits(v.bits))
	case v.typ.signed():
		return float64(int32(v.bits))
	default:
		return float64(v.bits)
	}
}

// As converts v to type t the way a C cast would: narrowing truncates.
func (v Value) As(t Type) Value {
	if v.typ == t {
		return v
	}
	switch t {
	case TypeUint8:
		return Uint8(uint8(v.Uint32()))
	case TypeInt8:
		return Int8(int8(v.Int32()))
	case TypeUint16:
		return Uint16(uint16(v.Uint32()))
	case TypeInt16:
		return Int16(int16(v.Int32()))
	case TypeUint32:
		return Uint32(v.Uint32())
	case TypeInt32:
		return Int32(v.Int32())
	case TypeFloat:
		return Float(v.Float32())
	}
	return Value{typ: t}
}

func (v Value) Equal(o Value) bool { return v.typ == o.typ && v.bits == o.bits }

func (v Value) String() string {
	switch {
	case v.typ == TypeFloat:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case v.typ.signed():
		return strconv.FormatInt(int64(int32(v.bits)), 10)
	default:
		return strconv.FormatUint(uint64(v.bits), 10)
	}
}

// Limits is the inclusive range a parameter accepts. Both bounds carry the
// parameter's declared type.
type Limits struct {
	Min, Max Value
}

func (l Limits) Type() Type { return l.Min.typ }

// Contains reports whether v has the limits' type and lies in [Min, Max].
func (l Limits) Contains(v Value) bool {
	if v.typ != l.Min.typ {
		return false
	}
	switch {
	case v.typ == TypeFloat:
		f := v.Float32()
		return f >= l.Min.Float32() && f <= l.Max.Float32()
	case v.typ.signed():
		i := int32(v.bits)
		return i >= int32(l.Min.bits) && i <= int32(l.Max.bits)
	default:
		return v.bits >= l.Min.bits && v.bits <= l.Max.bits
	}
}

func (l Limits) valid() bool {
	return l.Min.typ == l.Max.typ && l.Min.typ.valid() && l.Contains(l.Min) && l.Contains(l.Max)
}

func (l Limits) String() string { return "[" + l.Min.String() + ", " + l.Max.String() + "]" }
