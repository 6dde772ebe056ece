package vm

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gofrs/uuid"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/op"
	"github.com/squidvm/squid/output"
	"github.com/squidvm/squid/stack"
)

// UnitKind is the kind of an execution unit.
type UnitKind uint8

const (
	MainUnit UnitKind = iota
	ThreadUnit
	TaskUnit
)

func (k UnitKind) String() string {
	switch k {
	case MainUnit:
		return "main"
	case ThreadUnit:
		return "thread"
	case TaskUnit:
		return "task"
	default:
		return "unknown"
	}
}

// unit is one sequential executor: the main unit, a thread or a task.
type unit struct {
	m      *Machine
	kind   UnitKind
	name   string
	id     uuid.UUID
	region int

	stack   *stack.Stack[immediate.Immediate]
	returns *stack.ReturnStack
	frames  *stack.Frames[immediate.Immediate]

	pc int
	// opcode is the last fetched opcode.
	opcode op.Code
	// operand holds the operand of the current instruction, or the value
	// popped by PDFS.
	operand immediate.Immediate
	// data holds the value copied by PEEK.
	data immediate.Immediate

	running  bool
	panicErr error
	// handles is guarded by the machine's runMutex.
	handles []*Handle
	spawned [TaskUnit + 1]int

	checks  int
	sampled int
	yields  int
}

func (m *Machine) newUnit(kind UnitKind, name string, region int) *unit {
	id, err := uuid.NewV4()
	if err != nil {
		id = uuid.Nil
	}
	return &unit{
		m:       m,
		kind:    kind,
		name:    name,
		id:      id,
		region:  region,
		stack:   stack.New[immediate.Immediate](m.stackSize),
		returns: stack.NewReturnStack(m.returnStackSize),
		frames:  stack.NewFrames[immediate.Immediate](m.returnStackSize, m.stackSize),
		operand: immediate.Nil,
		data:    immediate.Nil,
		running: true,
	}
}

// run executes instructions until the unit halts or the program counter
// leaves the program. The counter is advanced before an instruction
// executes, so jumps land exactly on their target.
func (u *unit) run(ctx context.Context, p *bytecode.Program) error {
	if !u.running {
		return nil
	}
	n := p.Len()
	done := ctx.Done()
	interval := u.m.contextCheckInterval
	for u.running && u.pc < n {
		if interval > 0 && done != nil {
			u.checks++
			if u.checks >= interval {
				u.checks = 0
				select {
				case <-done:
					u.running = false
					return ctx.Err()
				default:
				}
			}
		}

		u.opcode = p.OpcodeAt(u.pc)
		u.operand = p.OperandAt(u.pc)

		if !u.observe() {
			u.running = false
			return ErrHalted
		}

		u.pc++
		if err := u.exec(ctx); err != nil {
			if err := u.fail(err); err != nil {
				return err
			}
		}

		if u.kind == TaskUnit {
			u.yield()
		}
	}
	if u.pc > n {
		u.raise(ErrPCOutOfRange)
	}
	u.pc++
	return nil
}

// runToCompletion drives a spawned unit until it halts and returns its
// failure, if any. Go panics raised while executing are recovered.
func (u *unit) runToCompletion(ctx context.Context, p *bytecode.Program) error {
	err := catch(func() error {
		for u.running {
			if err := u.run(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		err = u.panicErr
	}
	if err != nil {
		return fmt.Errorf("%s error: %w", u.name, err)
	}
	return nil
}

func (u *unit) observe() bool {
	obs := u.m.observer
	if obs == nil {
		return true
	}
	cfg := u.m.observerConfig
	switch cfg.StepMode {
	case StepNone:
		return true
	case StepSampled:
		u.sampled++
		if u.sampled < cfg.SampleInterval {
			return true
		}
		u.sampled = 0
	}
	return obs.OnStep(StepEvent{
		Unit:        u.name,
		Kind:        u.kind,
		PC:          u.pc,
		Opcode:      u.opcode,
		OpcodeName:  u.opcode.String(),
		StackDepth:  u.stack.Len(),
		ReturnDepth: u.returns.Len(),
		FrameDepth:  u.frames.Depth(),
	})
}

func (u *unit) yield() {
	interval := u.m.yieldInterval
	if interval <= 0 {
		return
	}
	u.yields++
	if u.yields >= interval {
		u.yields = 0
		runtime.Gosched()
	}
}

// fail routes an instruction error. Stack failures and missing features
// stop the unit and are returned; anything else takes the panic path.
func (u *unit) fail(err error) error {
	if isFatal(err) {
		u.running = false
		return err
	}
	u.raise(err)
	return nil
}

func isFatal(err error) bool {
	return stack.IsOverflow(err) ||
		errz.IsKind(err, errz.ErrStack) ||
		errz.IsKind(err, errz.ErrFeature)
}

// raise writes the unit's diagnostics and stops it. A nil cause marks an
// explicit PANIC instruction.
func (u *unit) raise(cause error) {
	if cause != nil {
		u.emit(output.Error, cause.Error())
	} else {
		cause = ErrPanic
	}
	u.emit(output.Error, u.name+" panicked")
	u.emit(output.Trace, fmt.Sprintf("%s Stack => %s", u.stackLabel(), u.stack))
	u.emit(output.Trace, fmt.Sprintf("Program Counter: %d", u.pc))
	u.emit(output.Trace, fmt.Sprintf("Last instruction: 0x%02X", byte(u.opcode)))
	u.running = false
	u.panicErr = cause
}

func (u *unit) stackLabel() string {
	if u.kind == MainUnit {
		return "Main"
	}
	return u.name
}

func (u *unit) emit(kind output.Kind, text string) {
	msg := output.Message{Kind: kind, Text: text}
	if kind != output.Print && kind != output.PrintLine {
		msg.Unit = u.id.String()
	}
	// A closed channel already reported the message on stderr.
	_ = u.m.out.Send(msg)
}

func (u *unit) dev(format string, args ...any) {
	u.emit(output.Dev, fmt.Sprintf(format, args...))
}
