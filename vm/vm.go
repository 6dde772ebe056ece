// Package vm implements the squid virtual machine.
//
// A Machine executes a Program on its main unit. The main unit may spawn
// thread and task units which run a program of their own and share the
// machine's heap, global repository and output channel. Each unit owns its
// stacks and registers.
package vm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/heap"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/internal/size"
	"github.com/squidvm/squid/output"
	"github.com/squidvm/squid/repository"
)

const (
	DefaultHeapSize        = 512 * size.MB
	DefaultRepositorySize  = 20
	DefaultStackSize       = 2000
	DefaultReturnStackSize = 100
	DefaultTaskWorkers     = 8
	DefaultYieldInterval   = 64

	// DefaultContextCheckInterval is the number of instructions between
	// checks of ctx.Done().
	DefaultContextCheckInterval = 1000
)

// Machine is a squid virtual machine.
type Machine struct {
	runMutex sync.Mutex
	busy     bool

	heap       *heap.Heap
	repo       *repository.Repository
	out        *output.Channel
	ownsOutput bool
	build      buildinfo.Info

	heapSize             int
	repositorySize       int
	stackSize            int
	returnStackSize      int
	taskWorkers          int
	yieldInterval        int
	contextCheckInterval int

	observer       Observer
	observerConfig ObserverConfig

	spawnProgram *bytecode.Program
	tasks        *taskRuntime
	main         *unit
	announced    bool
}

// New returns a machine ready to run a program. When no output channel is
// given the machine starts one on stdout and stderr and closes it in Close.
func New(options ...Option) (*Machine, error) {
	m := &Machine{
		build:                buildinfo.Default(),
		heapSize:             DefaultHeapSize,
		repositorySize:       DefaultRepositorySize,
		stackSize:            DefaultStackSize,
		returnStackSize:      DefaultReturnStackSize,
		taskWorkers:          DefaultTaskWorkers,
		yieldInterval:        DefaultYieldInterval,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.stackSize <= 0 || m.returnStackSize <= 0 {
		return nil, fmt.Errorf("stack sizes must be positive")
	}
	if m.heapSize < 0 || m.repositorySize < 0 {
		return nil, fmt.Errorf("heap and repository sizes must not be negative")
	}
	if m.out == nil {
		out, err := output.Start(output.Config{})
		if err != nil {
			return nil, err
		}
		m.out = out
		m.ownsOutput = true
	}
	if m.observer != nil {
		m.observerConfig = NormalizeConfig(m.observer.Config())
	}
	if m.spawnProgram == nil {
		m.spawnProgram = DemoProgram()
	}
	if m.taskWorkers > 0 {
		m.tasks = newTaskRuntime(m.taskWorkers)
	}
	m.heap = heap.New(m.heapSize)
	m.repo = repository.New(m.repositorySize)
	m.main = m.newUnit(MainUnit, "Main thread", heap.GlobalRegion)
	return m, nil
}

func (m *Machine) start() error {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if m.busy {
		return fmt.Errorf("vm is already running")
	}
	m.busy = true
	return nil
}

func (m *Machine) stop() {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	m.busy = false
}

// Run executes p on the main unit until the unit halts or its program
// counter reaches the end of p. Callers re-invoke Run while Running reports
// true:
//
//	for m.Running() {
//		if err := m.Run(ctx, p); err != nil {
//			return err
//		}
//	}
//
// Stack failures, disabled features and cancellation stop the machine and
// are returned. Every other runtime error takes the panic path: diagnostics
// are written to the output channel, the machine stops and Run returns nil.
// Panicked reports the cause afterwards.
func (m *Machine) Run(ctx context.Context, p *bytecode.Program) error {
	if err := m.start(); err != nil {
		return err
	}
	defer m.stop()
	if !m.announced {
		m.announced = true
		m.main.dev("squid %s (%s)", m.build.Version, m.build.Target)
	}
	return m.main.run(ctx, p)
}

// Execute runs p until the main unit halts.
func (m *Machine) Execute(ctx context.Context, p *bytecode.Program) error {
	for m.Running() {
		if err := m.Run(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Running reports whether the main unit has not halted yet.
func (m *Machine) Running() bool {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	return m.main.running
}

// Panicked returns the cause of the main unit's panic, or nil.
func (m *Machine) Panicked() error {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	return m.main.panicErr
}

// PC returns the main unit's program counter.
func (m *Machine) PC() int {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	return m.main.pc
}

// Stack returns a copy of the main unit's data stack, bottom first. Only
// meaningful while the machine is not running.
func (m *Machine) Stack() []immediate.Immediate {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if m.busy {
		return nil
	}
	return m.main.stack.Items()
}

// DataRegister returns the value last copied by PEEK, or Null.
func (m *Machine) DataRegister() immediate.Immediate {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	return m.main.data
}

// Heap returns the heap shared by all units.
func (m *Machine) Heap() *heap.Heap {
	return m.heap
}

// Repository returns the global variable repository.
func (m *Machine) Repository() *repository.Repository {
	return m.repo
}

// Output returns the machine's output channel.
func (m *Machine) Output() *output.Channel {
	return m.out
}

// Join waits for every unit spawned by the main unit and returns their
// results in spawn order.
func (m *Machine) Join() []JoinResult {
	m.runMutex.Lock()
	handles := m.main.handles
	m.main.handles = nil
	m.runMutex.Unlock()

	results := make([]JoinResult, 0, len(handles))
	for _, h := range handles {
		err := h.Wait()
		results = append(results, JoinResult{Kind: h.Kind, Name: h.Name, ID: h.ID, Err: err})
	}
	return results
}

// JoinErr waits for every spawned unit and combines their failures.
func (m *Machine) JoinErr() error {
	var result *multierror.Error
	for _, r := range m.Join() {
		if r.Err != nil {
			result = multierror.Append(result, r.Err)
		}
	}
	return result.ErrorOrNil()
}

// Close joins outstanding units, reporting their failures on the output
// channel, and closes the channel if the machine started it.
func (m *Machine) Close() error {
	err := m.JoinErr()
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			m.main.emit(output.Error, e.Error())
		}
	}
	if m.ownsOutput {
		m.out.Close()
	}
	return err
}
