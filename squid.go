// Package squid loads squid binaries and runs them on a virtual machine.
//
//	result, err := squid.RunFile(ctx, "hello.sqd")
//
// The lower level packages are available for finer control: bytecode
// decodes binaries, vm executes them and output renders what they print.
package squid

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/heap"
	"github.com/squidvm/squid/output"
	"github.com/squidvm/squid/vm"
)

// Result describes a finished run.
type Result struct {
	// Panicked is the cause of a main unit panic, or nil.
	Panicked error
	// Units holds the spawned units' results in spawn order.
	Units []vm.JoinResult
	// Heap is the heap usage after every unit finished.
	Heap heap.Stats
}

// Load reads and decodes the binary at path.
func Load(path string, opts ...Option) (*bytecode.Program, error) {
	o := collectOptions(opts...)
	return bytecode.Load(path, o.loadOptions())
}

// RunFile loads the binary at path and runs it.
func RunFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	program, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, program, opts...)
}

// Run executes program until its main unit halts, then waits for every
// spawned unit. A fatal machine error is returned ahead of unit failures;
// unit failures are combined into one error.
func Run(ctx context.Context, program *bytecode.Program, opts ...Option) (*Result, error) {
	o := collectOptions(opts...)
	out := o.out
	if out == nil {
		var err error
		out, err = output.Start(o.outputConfig)
		if err != nil {
			return nil, err
		}
		defer out.Close()
	}
	vmOpts := o.vmOpts()
	vmOpts = append(vmOpts, vm.WithOutput(out))
	if o.trace {
		vmOpts = append(vmOpts, vm.WithObserver(vm.NewTraceObserver(out)))
	}
	machine, err := vm.New(vmOpts...)
	if err != nil {
		return nil, err
	}

	runErr := machine.Execute(ctx, program)
	units := machine.Join()
	result := &Result{
		Panicked: machine.Panicked(),
		Units:    units,
		Heap:     machine.Heap().Stats(),
	}
	if runErr != nil {
		return result, runErr
	}
	var failures *multierror.Error
	for _, u := range units {
		if u.Err != nil {
			out.Error(u.Err.Error())
			failures = multierror.Append(failures, u.Err)
		}
	}
	return result, failures.ErrorOrNil()
}
