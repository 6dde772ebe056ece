// Package stack provides the bounded stacks used by execution units.
package stack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/squidvm/squid/errz"
)

// ErrUnderflow is returned when popping an empty stack.
var ErrUnderflow = errz.New(errz.ErrStack, "[ STACK UNDERFLOW ]").WithCode(errz.StackUnderflow)

// OverflowError is returned when pushing onto a full stack.
type OverflowError struct {
	Capacity int
	Depth    int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("[ STACK OVERFLOW ] Stack Capacity: %d, Stack Size: %d", e.Capacity, e.Depth)
}

// ExitCode implements errz.ExitCoder.
func (e *OverflowError) ExitCode() errz.ExitCode {
	return errz.StackOverflow
}

// IsOverflow reports whether err is a stack overflow.
func IsOverflow(err error) bool {
	var overflow *OverflowError
	return errors.As(err, &overflow)
}

// Stack is a LIFO with a fixed capacity. It is not safe for concurrent use;
// each execution unit owns its stacks.
type Stack[T any] struct {
	items    []T
	capacity int
}

// New returns an empty stack holding at most capacity items.
func New[T any](capacity int) *Stack[T] {
	return &Stack[T]{
		items:    make([]T, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// Push adds v to the top of the stack.
func (s *Stack[T]) Push(v T) error {
	if len(s.items) >= s.capacity {
		return &OverflowError{Capacity: s.capacity, Depth: len(s.items)}
	}
	s.items = append(s.items, v)
	return nil
}

// Pop removes and returns the top of the stack.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, ErrUnderflow
	}
	v := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return v, nil
}

// Peek returns the top of the stack without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int { return len(s.items) }

func (s *Stack[T]) Cap() int { return s.capacity }

func (s *Stack[T]) IsEmpty() bool { return len(s.items) == 0 }

// Items returns a copy of the stack contents, bottom first.
func (s *Stack[T]) Items() []T {
	return append([]T(nil), s.items...)
}

// String renders the stack for diagnostics.
func (s *Stack[T]) String() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = fmt.Sprintf("%#v", item)
	}
	return fmt.Sprintf("[Contents => [%s], Capacity => %d, Top => %d]",
		strings.Join(parts, ", "), s.capacity, len(s.items))
}
