// Package immediate provides the dynamic values manipulated by the Squid
// virtual machine.
//
// Every value on a stack, in a program's operand table or on the heap is an
// Immediate. Callers usually type switch on the concrete variant:
//
//	switch v := v.(type) {
//	case *immediate.Int:
//		// do something with v.Value()
//	case *immediate.Float:
//		// do something with v.Value()
//	}
package immediate

import "github.com/squidvm/squid/errz"

// Type names a variant of the Immediate union.
type Type string

// Type constants
const (
	NULL       Type = "Null"
	BOOLEAN    Type = "Boolean"
	INTEGER    Type = "Integer"
	UINTEGER   Type = "UInteger"
	FLOAT      Type = "Float"
	STATIC_STR Type = "StaticStr"
	MUT_STR    Type = "MutStr"
	BINARY     Type = "Binary"
	ARRAY      Type = "Array"
)

var (
	Nil   = &NullType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Immediate is the interface implemented by every value variant.
type Immediate interface {
	// Type of the value.
	Type() Type

	// Inspect returns the display form of the value, as printed by the
	// print instructions.
	Inspect() string

	// GoString returns the debug form of the value, for example Integer(5).
	GoString() string

	// Interface converts the value to a native Go value.
	Interface() any

	// Equals reports whether other is the same variant holding the same value.
	Equals(other Immediate) bool
}

// Comparable is implemented by variants with a total order.
type Comparable interface {
	Compare(other Immediate) (int, error)
}

// Compare orders a relative to b. Both values must be the same comparable
// variant.
func Compare(a, b Immediate) (int, error) {
	c, ok := a.(Comparable)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare %s and %s", a.Type(), b.Type())
	}
	return c.Compare(b)
}

// NewBool returns the shared Boolean value for b.
func NewBool(b bool) *Bool {
	if b {
		return True
	}
	return False
}

// FromGo converts a native Go value to an Immediate. Unsupported values
// return a type error.
func FromGo(v any) (Immediate, error) {
	switch v := v.(type) {
	case nil:
		return Nil, nil
	case Immediate:
		return v, nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case uint64:
		return NewUInt(v), nil
	case float64:
		return NewFloat(v), nil
	case string:
		return NewMutStr(v), nil
	case []byte:
		return NewBinary(v), nil
	case []Immediate:
		return NewArray(v), nil
	default:
		return nil, errz.TypeErrorf("unsupported go type %T", v)
	}
}
