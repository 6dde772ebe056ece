package immediate

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/squidvm/squid/errz"
)

// StaticStr is an immutable string shared between holders.
type StaticStr struct {
	value string
}

func NewStaticStr(value string) *StaticStr {
	return &StaticStr{value: value}
}

func (s *StaticStr) Type() Type { return STATIC_STR }

func (s *StaticStr) Value() string { return s.value }

func (s *StaticStr) Inspect() string { return s.value }

func (s *StaticStr) GoString() string { return "StaticStr(" + strconv.Quote(s.value) + ")" }

func (s *StaticStr) String() string { return s.value }

func (s *StaticStr) Interface() any { return s.value }

func (s *StaticStr) Equals(other Immediate) bool {
	o, ok := other.(*StaticStr)
	return ok && o.value == s.value
}

func (s *StaticStr) Compare(other Immediate) (int, error) {
	o, ok := other.(*StaticStr)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare StaticStr and %s", other.Type())
	}
	return compareOrdered(s.value, o.value), nil
}

// MutStr is a string owned by its holder. Strings decoded from a binary and
// error markers pushed by the virtual machine are MutStr values.
type MutStr struct {
	value string
}

func NewMutStr(value string) *MutStr {
	return &MutStr{value: value}
}

func (s *MutStr) Type() Type { return MUT_STR }

func (s *MutStr) Value() string { return s.value }

func (s *MutStr) Inspect() string { return s.value }

func (s *MutStr) GoString() string { return "MutStr(" + strconv.Quote(s.value) + ")" }

func (s *MutStr) String() string { return s.value }

func (s *MutStr) Interface() any { return s.value }

func (s *MutStr) Equals(other Immediate) bool {
	o, ok := other.(*MutStr)
	return ok && o.value == s.value
}

func (s *MutStr) Compare(other Immediate) (int, error) {
	o, ok := other.(*MutStr)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare MutStr and %s", other.Type())
	}
	return compareOrdered(s.value, o.value), nil
}

// Binary wraps a byte slice.
type Binary struct {
	value []byte
}

// NewBinary returns a Binary holding a copy of value.
func NewBinary(value []byte) *Binary {
	return &Binary{value: bytes.Clone(value)}
}

func (b *Binary) Type() Type { return BINARY }

func (b *Binary) Value() []byte { return b.value }

func (b *Binary) Inspect() string {
	parts := make([]string, len(b.value))
	for i, c := range b.value {
		parts[i] = strconv.Itoa(int(c))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (b *Binary) GoString() string { return "Binary(" + b.Inspect() + ")" }

func (b *Binary) String() string { return b.Inspect() }

func (b *Binary) Interface() any { return b.value }

func (b *Binary) Equals(other Immediate) bool {
	o, ok := other.(*Binary)
	return ok && bytes.Equal(o.value, b.value)
}

func (b *Binary) Compare(other Immediate) (int, error) {
	o, ok := other.(*Binary)
	if !ok {
		return 0, errz.TypeErrorf("unable to compare Binary and %s", other.Type())
	}
	return bytes.Compare(b.value, o.value), nil
}

// Array is an ordered list of values. Arrays live only on stacks; they have
// no heap representation.
type Array struct {
	items []Immediate
}

func NewArray(items []Immediate) *Array {
	return &Array{items: items}
}

func (a *Array) Type() Type { return ARRAY }

func (a *Array) Value() []Immediate { return a.items }

func (a *Array) Len() int { return len(a.items) }

func (a *Array) Inspect() string {
	parts := make([]string, len(a.items))
	for i, item := range a.items {
		parts[i] = item.GoString()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) GoString() string { return fmt.Sprintf("Array(%s)", a.Inspect()) }

func (a *Array) String() string { return a.Inspect() }

func (a *Array) Interface() any {
	items := make([]any, len(a.items))
	for i, item := range a.items {
		items[i] = item.Interface()
	}
	return items
}

func (a *Array) Equals(other Immediate) bool {
	o, ok := other.(*Array)
	if !ok || len(o.items) != len(a.items) {
		return false
	}
	for i, item := range a.items {
		if !item.Equals(o.items[i]) {
			return false
		}
	}
	return true
}
