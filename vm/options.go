package vm

import (
	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/output"
)

// Option is a configuration function for a Machine.
type Option func(*Machine)

// WithHeapSize sets the heap budget in bytes.
func WithHeapSize(bytes int) Option {
	return func(m *Machine) {
		m.heapSize = bytes
	}
}

// WithRepositorySize sets the number of global variables the repository
// holds.
func WithRepositorySize(n int) Option {
	return func(m *Machine) {
		m.repositorySize = n
	}
}

// WithStackSize sets the capacity of every unit's data stack.
func WithStackSize(n int) Option {
	return func(m *Machine) {
		m.stackSize = n
	}
}

// WithReturnStackSize sets the capacity of every unit's return stack.
func WithReturnStackSize(n int) Option {
	return func(m *Machine) {
		m.returnStackSize = n
	}
}

// WithOutput sets the channel every unit writes to. The caller keeps
// ownership and closes it after Close.
func WithOutput(out *output.Channel) Option {
	return func(m *Machine) {
		m.out = out
	}
}

// WithBuildInfo sets the version the machine reports in dev mode.
func WithBuildInfo(info buildinfo.Info) Option {
	return func(m *Machine) {
		m.build = info
	}
}

// WithSpawnProgram sets the program executed by spawned threads and tasks.
// The default is DemoProgram.
func WithSpawnProgram(p *bytecode.Program) Option {
	return func(m *Machine) {
		m.spawnProgram = p
	}
}

// WithTaskWorkers bounds the number of tasks executing at once. Zero
// disables tasks: NTASK then fails with a feature error.
func WithTaskWorkers(n int) Option {
	return func(m *Machine) {
		m.taskWorkers = n
	}
}

// WithYieldInterval sets how many instructions a task runs before yielding
// to the scheduler. Zero disables yielding.
func WithYieldInterval(n int) Option {
	return func(m *Machine) {
		m.yieldInterval = n
	}
}

// WithContextCheckInterval sets how often units check ctx.Done() during
// execution, in instructions. Zero disables the check.
func WithContextCheckInterval(interval int) Option {
	return func(m *Machine) {
		m.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for execution events. The observer is
// shared by every unit and must be safe for concurrent use. Returning false
// from OnStep halts the unit.
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observer = observer
	}
}
