package immediate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/squidvm/squid/errz"
)

// NullType is the type of the Nil value.
type NullType struct{}

func (n *NullType) Type() Type { return NULL }

func (n *NullType) Inspect() string { return "Null" }

func (n *NullType) GoString() string { return "Null" }

func (n *NullType) String() string { return n.Inspect() }

func (n *NullType) Interface() any { return nil }

func (n *NullType) Equals(other Immediate) bool {
	_, ok := other.(*NullType)
	return ok
}

func (n *NullType) Compare(other Immediate) (int, error) {
	if _, ok := other.(*NullType); ok {
		return 0, nil
	}
	return 0, errz.TypeErrorf("unable to compare Null and %s", other.Type())
}

// Bool wraps bool.
type Bool struct {
	value bool
}

func (b *Bool) Type() Type { return BOOLEAN }

func (b *Bool) Value() bool { return b.value }

func (b *Bool) Inspect() string { return strconv.FormatBool(b.value) }

func (b *Bool) GoString() string { return fmt.Sprintf("Boolean(%t)", b.value) }

func (b *Bool) String() string { return b.Inspect() }

func (b *Bool) Interface() any { return b.value }

func (b *Bool) Equals(other Immediate) bool {
	o, ok := other.(*Bool)
	return ok && o.value == b.value
}

func (b *Bool) Compare(other Immediate) (int, error) {
	o, ok := other.(*Bool)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare Boolean and %s", other.Type())
	}
	switch {
	case b.value == o.value:
		return 0, nil
	case b.value:
		return 1, nil
	default:
		return -1, nil
	}
}

// Int wraps int64.
type Int struct {
	value int64
}

func NewInt(value int64) *Int {
	return &Int{value: value}
}

func (i *Int) Type() Type { return INTEGER }

func (i *Int) Value() int64 { return i.value }

func (i *Int) Inspect() string { return strconv.FormatInt(i.value, 10) }

func (i *Int) GoString() string { return fmt.Sprintf("Integer(%d)", i.value) }

func (i *Int) String() string { return i.Inspect() }

func (i *Int) Interface() any { return i.value }

func (i *Int) Equals(other Immediate) bool {
	o, ok := other.(*Int)
	return ok && o.value == i.value
}

func (i *Int) Compare(other Immediate) (int, error) {
	o, ok := other.(*Int)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare Integer and %s", other.Type())
	}
	return compareOrdered(i.value, o.value), nil
}

// UInt wraps uint64. Unsigned integers double as addresses, variable names
// and variable pointers.
type UInt struct {
	value uint64
}

func NewUInt(value uint64) *UInt {
	return &UInt{value: value}
}

func (u *UInt) Type() Type { return UINTEGER }

func (u *UInt) Value() uint64 { return u.value }

func (u *UInt) Inspect() string { return strconv.FormatUint(u.value, 10) }

func (u *UInt) GoString() string { return fmt.Sprintf("UInteger(%d)", u.value) }

func (u *UInt) String() string { return u.Inspect() }

func (u *UInt) Interface() any { return u.value }

func (u *UInt) Equals(other Immediate) bool {
	o, ok := other.(*UInt)
	return ok && o.value == u.value
}

func (u *UInt) Compare(other Immediate) (int, error) {
	o, ok := other.(*UInt)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare UInteger and %s", other.Type())
	}
	return compareOrdered(u.value, o.value), nil
}

// Float wraps float64.
type Float struct {
	value float64
}

func NewFloat(value float64) *Float {
	return &Float{value: value}
}

func (f *Float) Type() Type { return FLOAT }

func (f *Float) Value() float64 { return f.value }

func (f *Float) Inspect() string {
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

func (f *Float) GoString() string {
	s := f.Inspect()
	if !math.IsInf(f.value, 0) && !math.IsNaN(f.value) && !strings.Contains(s, ".") {
		s += ".0"
	}
	return "Float(" + s + ")"
}

func (f *Float) String() string { return f.Inspect() }

func (f *Float) Interface() any { return f.value }

func (f *Float) Equals(other Immediate) bool {
	o, ok := other.(*Float)
	return ok && o.value == f.value
}

func (f *Float) Compare(other Immediate) (int, error) {
	o, ok := other.(*Float)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare Float and %s", other.Type())
	}
	return compareOrdered(f.value, o.value), nil
}

func compareOrdered[T int64 | uint64 | float64 | string](a, b T) int {
	switch {
	case a == b:
		return 0
	case a > b:
		return 1
	default:
		return -1
	}
}
