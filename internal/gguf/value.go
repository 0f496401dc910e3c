package gguf

import (
	"fmt"
	"math"
)

// ValueType is the u32 tag that precedes every metadata value.
type ValueType uint32

const (
	TypeUint8   ValueType = 0
	TypeInt8    ValueType = 1
	TypeUint16  ValueType = 2
	TypeInt16   ValueType = 3
	TypeUint32  ValueType = 4
	TypeInt32   ValueType = 5
	TypeFloat32 ValueType = 6
	TypeBool    ValueType = 7
	TypeString  ValueType = 8
	TypeArray   ValueType = 9
	TypeUint64  ValueType = 10
	TypeInt64   ValueType = 11
	TypeFloat64 ValueType = 12

	valueTypeCount = 13
)

// Valid reports whether t is one of the thirteen defined tags.
func (t ValueType) Valid() bool { return t < valueTypeCount }

func (t ValueType) String() string {
	switch t {
	case TypeUint8:
		return "u8"
	case TypeInt8:
		return "i8"
	case TypeUint16:
		return "u16"
	case TypeInt16:
		return "i16"
	case TypeUint32:
		return "u32"
	case TypeInt32:
		return "i32"
	case TypeUint64:
		return "u64"
	case TypeInt64:
		return "i64"
	case TypeFloat32:
		return "f32"
	case TypeFloat64:
		return "f64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

// minEncodedSize is the fewest bytes one value of type t can occupy in the
// stream. Array counts are checked against it before allocating.
func (t ValueType) minEncodedSize() uint64 {
	switch t {
	case TypeUint8, TypeInt8, TypeBool:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat32:
		return 4
	case TypeUint64, TypeInt64, TypeFloat64, TypeString:
		return 8
	case TypeArray:
		return 12
	default:
		return 1
	}
}

func (t ValueType) signed() bool {
	return t == TypeInt8 || t == TypeInt16 || t == TypeInt32 || t == TypeInt64
}

func (t ValueType) unsigned() bool {
	return t == TypeUint8 || t == TypeUint16 || t == TypeUint32 || t == TypeUint64
}

// Value is one decoded metadata value. Type selects which payload is set:
// fixed-width scalars keep their bits in num (sign-extended for signed
// integers), strings in str, arrays in arr.
type Value struct {
	Type ValueType
	num  uint64
	str  string
	arr  *Array
}

// Array is the payload of a TypeArray value. All elements have type Elem.
type Array struct {
	Elem   ValueType
	Values []Value
}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Values)
}

// Constructors for each scalar type.

func Uint8Value(v uint8) Value     { return Value{Type: TypeUint8, num: uint64(v)} }
func Int8Value(v int8) Value       { return Value{Type: TypeInt8, num: uint64(int64(v))} }
func Uint16Value(v uint16) Value   { return Value{Type: TypeUint16, num: uint64(v)} }
func Int16Value(v int16) Value     { return Value{Type: TypeInt16, num: uint64(int64(v))} }
func Uint32Value(v uint32) Value   { return Value{Type: TypeUint32, num: uint64(v)} }
func Int32Value(v int32) Value     { return Value{Type: TypeInt32, num: uint64(int64(v))} }
func Uint64Value(v uint64) Value   { return Value{Type: TypeUint64, num: v} }
func Int64Value(v int64) Value     { return Value{Type: TypeInt64, num: uint64(v)} }
func Float32Value(v float32) Value { return Value{Type: TypeFloat32, num: uint64(math.Float32bits(v))} }
func Float64Value(v float64) Value { return Value{Type: TypeFloat64, num: math.Float64bits(v)} }
func StringValue(v string) Value   { return Value{Type: TypeString, str: v} }

func BoolValue(v bool) Value {
	if v {
		return Value{Type: TypeBool, num: 1}
	}
	return Value{Type: TypeBool}
}

// ArrayValue builds an array of elem-typed values. It does not check that
// the values actually have type elem.
func ArrayValue(elem ValueType, values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Type: TypeArray, arr: &Array{Elem: elem, Values: values}}
}

// Uint64 returns integer values as uint64. Negative signed values do not convert.
func (v Value) Uint64() (uint64, bool) {
	switch {
	case v.Type.unsigned():
		return v.num, true
	case v.Type.signed():
		if int64(v.num) < 0 {
			return 0, false
		}
		return v.num, true
	default:
		return 0, false
	}
}

// Int64 returns integer values as int64. Unsigned values above MaxInt64 do not convert.
func (v Value) Int64() (int64, bool) {
	switch {
	case v.Type.signed():
		return int64(v.num), true
	case v.Type.unsigned():
		if v.num > math.MaxInt64 {
			return 0, false
		}
		return int64(v.num), true
	default:
		return 0, false
	}
}

// Float64 returns f32 and f64 values widened to float64.
func (v Value) Float64() (float64, bool) {
	switch v.Type {
	case TypeFloat32:
		return float64(math.Float32frombits(uint32(v.num))), true
	case TypeFloat64:
		return math.Float64frombits(v.num), true
	default:
		return 0, false
	}
}

// Bool returns the payload of a bool value.
func (v Value) Bool() (bool, bool) {
	if v.Type != TypeBool {
		return false, false
	}
	return v.num != 0, true
}

// Text returns the payload of a string value.
func (v Value) Text() (string, bool) {
	if v.Type != TypeString {
		return "", false
	}
	return v.str, true
}

// Array returns the payload of an array value.
func (v Value) Array() (*Array, bool) {
	if v.Type != TypeArray || v.arr == nil {
		return nil, false
	}
	return v.arr, true
}

// Any returns the payload as its natural Go type: the sized integer or float,
// bool, string, or []any for arrays.
func (v Value) Any() any {
	switch v.Type {
	case TypeUint8:
		return uint8(v.num)
	case TypeInt8:
		return int8(v.num)
	case TypeUint16:
		return uint16(v.num)
	case TypeInt16:
		return int16(v.num)
	case TypeUint32:
		return uint32(v.num)
	case TypeInt32:
		return int32(v.num)
	case TypeUint64:
		return v.num
	case TypeInt64:
		return int64(v.num)
	case TypeFloat32:
		return math.Float32frombits(uint32(v.num))
	case TypeFloat64:
		return math.Float64frombits(v.num)
	case TypeBool:
		return v.num != 0
	case TypeString:
		return v.str
	case TypeArray:
		out := make([]any, v.arr.Len())
		for i := range out {
			out[i] = v.arr.Values[i].Any()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and o have the same type and payload. Floats
// compare by bit pattern, so NaN equals itself.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeString:
		return v.str == o.str
	case TypeArray:
		a, b := v.arr, o.arr
		if a == nil || b == nil {
			return a.Len() == 0 && b.Len() == 0
		}
		if a.Elem != b.Elem || len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if !a.Values[i].Equal(b.Values[i]) {
				return false
			}
		}
		return true
	default:
		return v.num == o.num
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return v.str
	case TypeArray:
		if v.arr == nil {
			return "array"
		}
		return fmt.Sprintf("array(%s) len=%d", v.arr.Elem, len(v.arr.Values))
	default:
		if v.Type.Valid() {
			return fmt.Sprint(v.Any())
		}
		return v.Type.String()
	}
}

// valueDecoder decodes tagged values. depth counts the arrays currently
// open; maxDepth <= 0 disables the limit.
type valueDecoder struct {
	maxDepth int
}

// decodeValue reads a type tag and then the value it describes.
func (d valueDecoder) decodeValue(c *Cursor) (Value, error) {
	tag, err := c.readU32()
	if err != nil {
		return Value{}, err
	}
	return d.decodeTyped(c, ValueType(tag), 0)
}

// decodeTyped reads one value whose type is already known. Array elements
// come through here with the array's element type; the format does not
// repeat the tag per element.
func (d valueDecoder) decodeTyped(c *Cursor, t ValueType, depth int) (Value, error) {
	switch t {
	case TypeUint8:
		v, err := c.readU8()
		return Uint8Value(v), err
	case TypeInt8:
		v, err := c.readI8()
		return Int8Value(v), err
	case TypeUint16:
		v, err := c.readU16()
		return Uint16Value(v), err
	case TypeInt16:
		v, err := c.readI16()
		return Int16Value(v), err
	case TypeUint32:
		v, err := c.readU32()
		return Uint32Value(v), err
	case TypeInt32:
		v, err := c.readI32()
		return Int32Value(v), err
	case TypeUint64:
		v, err := c.readU64()
		return Uint64Value(v), err
	case TypeInt64:
		v, err := c.readI64()
		return Int64Value(v), err
	case TypeFloat32:
		v, err := c.readF32()
		return Float32Value(v), err
	case TypeFloat64:
		v, err := c.readF64()
		return Float64Value(v), err
	case TypeBool:
		v, err := c.readBool()
		return BoolValue(v), err
	case TypeString:
		v, err := c.readString()
		return StringValue(v), err
	case TypeArray:
		return d.decodeArray(c, depth+1)
	default:
		return Value{}, c.fail("value type", &UnknownTypeError{Tag: uint32(t), kind: ErrUnknownValueType})
	}
}

func (d valueDecoder) decodeArray(c *Cursor, depth int) (Value, error) {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return Value{}, c.fail("array", ErrTooDeep)
	}

	tagOff := c.Position()
	tag, err := c.readU32()
	if err != nil {
		return Value{}, err
	}
	elem := ValueType(tag)
	if !elem.Valid() {
		return Value{}, &DecodeError{
			Op:     "array element type",
			Offset: tagOff,
			Err:    &UnknownTypeError{Tag: tag, kind: ErrUnknownValueType},
		}
	}

	count, err := c.readU64()
	if err != nil {
		return Value{}, err
	}
	if count > uint64(c.Remaining())/elem.minEncodedSize() {
		return Value{}, c.fail("array length", ErrImplausibleLength)
	}

	values := make([]Value, 0, count)
	for range count {
		v, err := d.decodeTyped(c, elem, depth)
		if err != nil {
			return Value{}, err
		}
		values = append(values, v)
	}
	return Value{Type: TypeArray, arr: &Array{Elem: elem, Values: values}}, nil
}
