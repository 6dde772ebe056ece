package vm

import (
	"fmt"

	"github.com/squidvm/squid/op"
	"github.com/squidvm/squid/output"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	StepNone

	// StepSampled calls OnStep every N instructions of a unit.
	StepSampled
)

// ObserverConfig specifies what events an observer wants to receive.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int
}

// NewObserverConfig creates a config with safe defaults.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer receives execution events from every unit of a machine.
//
// Methods are called synchronously from the unit that executes the
// instruction, so several units may call them at once.
type Observer interface {
	// Config returns the observer's configuration.
	// Called once when the machine is created.
	Config() ObserverConfig

	// OnStep is called before an instruction executes, based on the
	// StepMode in the observer's config. Returns false to halt the unit.
	OnStep(event StepEvent) bool
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// Unit is the name of the executing unit, e.g. "Main thread".
	Unit string

	// Kind is the kind of the executing unit.
	Kind UnitKind

	// PC is the program counter of the instruction.
	PC int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the mnemonic of the opcode.
	OpcodeName string

	// StackDepth is the current depth of the data stack.
	StackDepth int

	// ReturnDepth is the current depth of the return stack.
	ReturnDepth int

	// FrameDepth is the number of saved call frames.
	FrameDepth int
}

// NoOpObserver is an Observer implementation that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool { return true }

var _ Observer = NoOpObserver{}

// TraceObserver writes every step as a dev message to an output channel.
type TraceObserver struct {
	out *output.Channel
}

// NewTraceObserver returns an observer tracing to out.
func NewTraceObserver(out *output.Channel) *TraceObserver {
	return &TraceObserver{out: out}
}

func (t *TraceObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (t *TraceObserver) OnStep(e StepEvent) bool {
	t.out.Send(output.Message{
		Kind: output.Dev,
		Text: fmt.Sprintf("%s PC: %d %s, stack depth %d", e.Unit, e.PC, e.OpcodeName, e.StackDepth),
	})
	return true
}
