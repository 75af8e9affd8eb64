package ast

// Scalar is one of the built-in Web IDL types that never need arena lookup.
// The wire code of a scalar is the negation of its value.
type Scalar uint8

const (
	Any Scalar = iota + 1
	Boolean
	Byte
	Octet
	Long
	UnsignedLong
	Short
	UnsignedShort
	LongLong
	UnsignedLongLong
	Float
	UnrestrictedFloat
	Double
	UnrestrictedDouble
	DOMString
	ByteString
	USVString
	Object
	Symbol
	ArrayBuffer
	DataView
	Int8Array
	Int16Array
	Int32Array
	Uint8Array
	Uint16Array
	Uint32Array
	Uint8ClampedArray
	Float32Array
	Float64Array

	scalarCount = int(Float64Array)
)

var scalarNames = [...]string{
	Any:                "any",
	Boolean:            "boolean",
	Byte:               "byte",
	Octet:              "octet",
	Long:               "long",
	UnsignedLong:       "unsigned_long",
	Short:              "short",
	UnsignedShort:      "unsigned_short",
	LongLong:           "long_long",
	UnsignedLongLong:   "unsigned_long_long",
	Float:              "float",
	UnrestrictedFloat:  "unrestricted_float",
	Double:             "double",
	UnrestrictedDouble: "unrestricted_double",
	DOMString:          "DOMString",
	ByteString:         "ByteString",
	USVString:          "USVString",
	Object:             "object",
	Symbol:             "symbol",
	ArrayBuffer:        "ArrayBuffer",
	DataView:           "DataView",
	Int8Array:          "Int8Array",
	Int16Array:         "Int16Array",
	Int32Array:         "Int32Array",
	Uint8Array:         "Uint8Array",
	Uint16Array:        "Uint16Array",
	Uint32Array:        "Uint32Array",
	Uint8ClampedArray:  "Uint8ClampedArray",
	Float32Array:       "Float32Array",
	Float64Array:       "Float64Array",
}

// Scalars returns every scalar type in wire-code order (-1 first).
func Scalars() []Scalar {
	out := make([]Scalar, scalarCount)
	for i := range out {
		out[i] = Scalar(i + 1)
	}
	return out
}

// Valid reports whether s is one of the 30 scalar types.
func (s Scalar) Valid() bool {
	return s >= Any && s <= Float64Array
}

// Code returns the signed wire code of s, in -1..-30.
func (s Scalar) Code() int32 {
	return -int32(s)
}

// ScalarFromCode maps a negative wire code back to its scalar.
func ScalarFromCode(code int32) (Scalar, bool) {
	if code > -1 || code < -int32(scalarCount) {
		return 0, false
	}
	return Scalar(-code), true
}

// ScalarByName looks up a scalar by its text keyword.
func ScalarByName(name string) (Scalar, bool) {
	for i := 1; i <= scalarCount; i++ {
		if scalarNames[i] == name {
			return Scalar(i), true
		}
	}
	return 0, false
}

// Ref returns a type reference to s.
func (s Scalar) Ref() TypeRef {
	return TypeRef{Scalar: s}
}

func (s Scalar) String() string {
	if !s.Valid() {
		return "invalid"
	}
	return scalarNames[s]
}

// ValType is a host value kind, stored as its one-byte wire encoding.
type ValType byte

const (
	I32    ValType = 0x7f
	I64    ValType = 0x7e
	F32    ValType = 0x7d
	F64    ValType = 0x7c
	V128   ValType = 0x7b
	AnyRef ValType = 0x6f
)

// ValTypes returns the closed set of host value kinds.
func ValTypes() []ValType {
	return []ValType{I32, I64, F32, F64, V128, AnyRef}
}

// ValTypeFromByte validates a wire byte.
func ValTypeFromByte(b byte) (ValType, bool) {
	switch v := ValType(b); v {
	case I32, I64, F32, F64, V128, AnyRef:
		return v, true
	}
	return 0, false
}

// ValTypeByName looks up a value kind by its text keyword.
func ValTypeByName(name string) (ValType, bool) {
	for _, v := range ValTypes() {
		if v.String() == name {
			return v, true
		}
	}
	return 0, false
}

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	case AnyRef:
		return "anyref"
	default:
		return "unknown"
	}
}
