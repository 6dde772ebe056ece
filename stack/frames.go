package stack

import (
	"errors"
	"fmt"

	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/heap"
)

var (
	ErrReturnUnderflow = errz.New(errz.ErrStack, "[ RETURN STACK UNDERFLOW ]").WithCode(errz.StackUnderflow)
	ErrFrameUnderflow  = errz.New(errz.ErrStack, "[ FUNCTION STACK UNDERFLOW ]").WithCode(errz.StackUnderflow)
)

// Return is a return stack entry: the instruction to resume at and an
// optional heap pointer handed back to the caller.
type Return struct {
	PC      int
	Pointer *heap.Pointer
}

func (r Return) GoString() string {
	if r.Pointer == nil {
		return fmt.Sprintf("Return(%d)", r.PC)
	}
	return fmt.Sprintf("Return(%d, %s)", r.PC, r.Pointer)
}

// ReturnStack is a bounded stack of return addresses.
type ReturnStack struct {
	entries *Stack[Return]
}

func NewReturnStack(capacity int) *ReturnStack {
	return &ReturnStack{entries: New[Return](capacity)}
}

func (r *ReturnStack) Push(ret Return) error {
	if err := r.entries.Push(ret); err != nil {
		var overflow *OverflowError
		errors.As(err, &overflow)
		return errz.New(errz.ErrStack, "[ RETURN STACK OVERFLOW ] Stack Capacity: %d, Stack Size: %d",
			overflow.Capacity, overflow.Depth).WithCode(errz.StackOverflow)
	}
	return nil
}

func (r *ReturnStack) Pop() (Return, error) {
	ret, err := r.entries.Pop()
	if err != nil {
		return Return{}, ErrReturnUnderflow
	}
	return ret, nil
}

func (r *ReturnStack) Len() int { return r.entries.Len() }

func (r *ReturnStack) String() string { return r.entries.String() }

// Frames is a bounded stack of operand stacks. Entering a frame saves the
// caller's stack and hands out a fresh one; leaving restores it.
type Frames[T any] struct {
	saved         *Stack[*Stack[T]]
	frameCapacity int
}

// NewFrames returns a frame stack allowing depth nested frames, each with an
// operand stack of frameCapacity items.
func NewFrames[T any](depth, frameCapacity int) *Frames[T] {
	return &Frames[T]{
		saved:         New[*Stack[T]](depth),
		frameCapacity: frameCapacity,
	}
}

// Enter saves current and returns the stack for the new frame.
func (f *Frames[T]) Enter(current *Stack[T]) (*Stack[T], error) {
	if err := f.saved.Push(current); err != nil {
		return nil, err
	}
	return New[T](f.frameCapacity), nil
}

// Leave discards the current frame and returns the caller's stack.
func (f *Frames[T]) Leave() (*Stack[T], error) {
	caller, err := f.saved.Pop()
	if err != nil {
		return nil, ErrFrameUnderflow
	}
	return caller, nil
}

// Depth returns the number of saved frames.
func (f *Frames[T]) Depth() int { return f.saved.Len() }
