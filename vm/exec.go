package vm

import (
	"context"
	"fmt"
	"math"

	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
	"github.com/squidvm/squid/output"
)

// unknownMarker is pushed before an unknown opcode panics the unit.
const unknownMarker = "[ UNKNOWN INSTRUCTION ]"

// exec executes the fetched instruction. The program counter already points
// at the next instruction.
func (u *unit) exec(ctx context.Context) error {
	switch u.opcode {
	case op.Halt:
		u.running = false
		u.dev("Exiting...")
	case op.IAdd, op.ISub, op.IMul:
		return u.intArith()
	case op.IDvd, op.FIDvd:
		return u.intDivide()
	case op.FAdd, op.FSub, op.FMul, op.FDvd:
		return u.floatArith()
	case op.IExp:
		return u.intExp()
	case op.FExp, op.FIExp:
		return u.floatExp()
	case op.PushData:
		// Null marks an absent operand.
		if u.operand.Type() == immediate.NULL {
			return nil
		}
		return u.stack.Push(u.operand)
	case op.PopData:
		v, err := u.stack.Pop()
		if err != nil {
			return err
		}
		u.operand = v
	case op.JumpData:
		return u.jump(u.operand)
	case op.JumpStack:
		v, err := u.stack.Pop()
		if err != nil {
			return err
		}
		return u.jump(v)
	case op.PrintTop:
		v, err := u.stack.Pop()
		if err != nil {
			u.raise(err)
			return nil
		}
		u.emit(output.Print, v.Inspect())
	case op.PrintData:
		u.emit(output.Print, u.operand.Inspect())
	case op.AddVarPointer:
		return u.addVarPointer()
	case op.DerefVarData:
		return u.derefVar(u.operand)
	case op.DerefVarStack:
		v, err := u.stack.Pop()
		if err != nil {
			return err
		}
		return u.derefVar(v)
	case op.NewWindow:
		u.dev("NTW is not implemented yet")
	case op.NewTask:
		return u.spawnTask(ctx)
	case op.NewThread:
		return u.spawnThread(ctx)
	case op.Panic:
		u.raise(nil)
	case op.Peek:
		v, ok := u.stack.Peek()
		if !ok {
			u.emit(output.Warn, "Stack is empty, can't peek")
			return nil
		}
		u.data = v
	case op.Swap:
		return u.swap()
	case op.Equals:
		v1, v2, err := u.pop2()
		if err != nil {
			return err
		}
		return u.stack.Push(immediate.NewBool(v1.Equals(v2)))
	case op.LessThan, op.GreaterThan:
		return u.compare()
	case op.And, op.Or:
		return u.logic()
	default:
		if err := u.stack.Push(immediate.NewMutStr(unknownMarker)); err != nil {
			u.emit(output.Error, err.Error())
		}
		u.raise(fmt.Errorf("%w 0x%02X", ErrUnknownInstruction, byte(u.opcode)))
	}
	return nil
}

// pop2 pops the right operand, then the left one.
func (u *unit) pop2() (immediate.Immediate, immediate.Immediate, error) {
	v2, err := u.stack.Pop()
	if err != nil {
		return nil, nil, err
	}
	v1, err := u.stack.Pop()
	if err != nil {
		return nil, nil, err
	}
	return v1, v2, nil
}

func (u *unit) popInts() (int64, int64, error) {
	v1, v2, err := u.pop2()
	if err != nil {
		return 0, 0, err
	}
	a, ok1 := v1.(*immediate.Int)
	b, ok2 := v2.(*immediate.Int)
	if !ok1 || !ok2 {
		return 0, 0, ErrNoIntegers
	}
	return a.Value(), b.Value(), nil
}

func (u *unit) popFloats() (float64, float64, error) {
	v1, v2, err := u.pop2()
	if err != nil {
		return 0, 0, err
	}
	a, ok1 := v1.(*immediate.Float)
	b, ok2 := v2.(*immediate.Float)
	if !ok1 || !ok2 {
		return 0, 0, ErrNoFloats
	}
	return a.Value(), b.Value(), nil
}

// Integer arithmetic wraps on overflow.
func (u *unit) intArith() error {
	a, b, err := u.popInts()
	if err != nil {
		return err
	}
	var result int64
	switch u.opcode {
	case op.IAdd:
		result = a + b
	case op.ISub:
		result = a - b
	case op.IMul:
		result = a * b
	}
	return u.stack.Push(immediate.NewInt(result))
}

// intDivide implements I_DVD, which keeps an Integer only when the division
// is exact, and F_I_DVD, which always truncates.
func (u *unit) intDivide() error {
	a, b, err := u.popInts()
	if err != nil {
		return err
	}
	if b == 0 {
		return ErrDivisionByZero
	}
	q := a / b
	if u.opcode == op.FIDvd {
		return u.stack.Push(immediate.NewInt(q))
	}
	exact := float64(a) / float64(b)
	if float64(q) == exact {
		return u.stack.Push(immediate.NewInt(q))
	}
	return u.stack.Push(immediate.NewFloat(exact))
}

func (u *unit) floatArith() error {
	a, b, err := u.popFloats()
	if err != nil {
		return err
	}
	var result float64
	switch u.opcode {
	case op.FAdd:
		result = a + b
	case op.FSub:
		result = a - b
	case op.FMul:
		result = a * b
	case op.FDvd:
		result = a / b
	}
	return u.stack.Push(immediate.NewFloat(result))
}

// intExp raises an Integer base to a UInteger exponent.
func (u *unit) intExp() error {
	v1, v2, err := u.pop2()
	if err != nil {
		return err
	}
	base, ok1 := v1.(*immediate.Int)
	exp, ok2 := v2.(*immediate.UInt)
	if !ok1 || !ok2 {
		return ErrNoIntegers
	}
	return u.stack.Push(immediate.NewInt(ipow(base.Value(), exp.Value())))
}

// floatExp implements F_EXP with a Float exponent and F_I_EXP with an
// Integer exponent.
func (u *unit) floatExp() error {
	v1, v2, err := u.pop2()
	if err != nil {
		return err
	}
	base, ok := v1.(*immediate.Float)
	if !ok {
		return ErrNoFloats
	}
	var exp float64
	switch e := v2.(type) {
	case *immediate.Float:
		if u.opcode != op.FExp {
			return ErrNoFloats
		}
		exp = e.Value()
	case *immediate.Int:
		if u.opcode != op.FIExp {
			return ErrNoFloats
		}
		exp = float64(e.Value())
	default:
		return ErrNoFloats
	}
	return u.stack.Push(immediate.NewFloat(math.Pow(base.Value(), exp)))
}

// ipow computes base**exp with wrapping multiplication.
func ipow(base int64, exp uint64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func (u *unit) jump(target immediate.Immediate) error {
	addr, ok := target.(*immediate.UInt)
	if !ok {
		return ErrWrongAddress
	}
	if addr.Value() > math.MaxInt32 {
		u.pc = math.MaxInt32
	} else {
		u.pc = int(addr.Value())
	}
	return nil
}

// addVarPointer pops a variable pointer, then its name, and binds them in
// the repository.
func (u *unit) addVarPointer() error {
	ptrValue, err := u.stack.Pop()
	if err != nil {
		return err
	}
	nameValue, err := u.stack.Pop()
	if err != nil {
		return err
	}
	ptr, ok := ptrValue.(*immediate.UInt)
	if !ok {
		return ErrInvalidVarPointer
	}
	name, ok := nameValue.(*immediate.UInt)
	if !ok {
		return ErrInvalidVarName
	}
	return u.m.repo.Add(name.Value(), ptr.Value())
}

func (u *unit) derefVar(nameValue immediate.Immediate) error {
	name, ok := nameValue.(*immediate.UInt)
	if !ok {
		return ErrWrongVarName
	}
	ptr, err := u.m.repo.Get(name.Value())
	if err != nil {
		return err
	}
	u.emit(output.PrintLine, fmt.Sprintf("Pointer: %d", ptr))
	return nil
}

func (u *unit) swap() error {
	a, err := u.stack.Pop()
	if err != nil {
		u.raise(err)
		return nil
	}
	b, err := u.stack.Pop()
	if err != nil {
		u.raise(err)
		return nil
	}
	if err := u.stack.Push(a); err != nil {
		return err
	}
	return u.stack.Push(b)
}

// compare pushes whether the second value from the top is less than (or
// greater than) the top.
func (u *unit) compare() error {
	v1, v2, err := u.pop2()
	if err != nil {
		return err
	}
	c, err := immediate.Compare(v1, v2)
	if err != nil {
		return err
	}
	if u.opcode == op.LessThan {
		return u.stack.Push(immediate.NewBool(c < 0))
	}
	return u.stack.Push(immediate.NewBool(c > 0))
}

func (u *unit) logic() error {
	v1, v2, err := u.pop2()
	if err != nil {
		return err
	}
	a, ok1 := v1.(*immediate.Bool)
	b, ok2 := v2.(*immediate.Bool)
	if !ok1 || !ok2 {
		return ErrNoBooleans
	}
	if u.opcode == op.And {
		return u.stack.Push(immediate.NewBool(a.Value() && b.Value()))
	}
	return u.stack.Push(immediate.NewBool(a.Value() || b.Value()))
}
