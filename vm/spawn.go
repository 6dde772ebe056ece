package vm

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/panics"
	"github.com/squidvm/squid/immediate"
	"golang.org/x/sync/semaphore"
)

// Handle tracks a spawned unit.
type Handle struct {
	Kind UnitKind
	Name string
	ID   uuid.UUID

	done chan struct{}
	err  error
}

func newHandle(u *unit) *Handle {
	return &Handle{
		Kind: u.kind,
		Name: u.name,
		ID:   u.id,
		done: make(chan struct{}),
	}
}

func (h *Handle) finish(err error) {
	h.err = err
	close(h.done)
}

// Wait blocks until the unit finishes and returns its failure, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// JoinResult is the outcome of a spawned unit.
type JoinResult struct {
	Kind UnitKind
	Name string
	ID   uuid.UUID
	Err  error
}

// taskRuntime runs tasks on goroutines, at most workers at a time.
type taskRuntime struct {
	sem *semaphore.Weighted
}

func newTaskRuntime(workers int) *taskRuntime {
	return &taskRuntime{sem: semaphore.NewWeighted(int64(workers))}
}

// catch runs fn and converts a Go panic into an error.
func catch(fn func() error) error {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = fn()
	})
	if r := catcher.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

// spawnFlag reads the operand of NTASK and NTHRD.
func spawnFlag(operand immediate.Immediate) (bool, error) {
	flag, ok := operand.(*immediate.Bool)
	if !ok {
		return false, ErrSpawnFlag
	}
	return flag.Value(), nil
}

// nextNumber numbers the unit's children of the given kind. Only the unit's
// own goroutine calls it.
func (u *unit) nextNumber(kind UnitKind) int {
	n := u.spawned[kind]
	u.spawned[kind]++
	return n
}

func (u *unit) register(child *unit) *Handle {
	h := newHandle(child)
	u.m.runMutex.Lock()
	u.handles = append(u.handles, h)
	u.m.runMutex.Unlock()
	u.dev("Spawned %s (%s)", child.name, child.id)
	return h
}

// spawnThread starts a thread unit on its own OS thread. Only the main unit
// may spawn threads.
func (u *unit) spawnThread(ctx context.Context) error {
	if u.kind != MainUnit {
		return ErrNestedThread
	}
	spawn, err := spawnFlag(u.operand)
	if err != nil || !spawn {
		return err
	}
	region := u.m.heap.AllocateThreadRegion()
	child := u.m.newUnit(ThreadUnit, fmt.Sprintf("Thread %d", u.nextNumber(ThreadUnit)), region)
	h := u.register(child)
	program := u.m.spawnProgram
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		err := child.runToCompletion(ctx, program)
		h.finish(multierror.Append(err, child.release()).ErrorOrNil())
	}()
	return nil
}

// spawnTask starts a task unit. Tasks are scheduled on the machine's
// bounded worker pool and may spawn further tasks, which they join before
// finishing.
func (u *unit) spawnTask(ctx context.Context) error {
	if u.kind == ThreadUnit {
		return ErrTaskInThread
	}
	spawn, err := spawnFlag(u.operand)
	if err != nil || !spawn {
		return err
	}
	tasks := u.m.tasks
	if tasks == nil {
		return ErrTasksOff
	}
	n := u.nextNumber(TaskUnit)
	name := fmt.Sprintf("Task %d", n)
	if u.kind == TaskUnit {
		name = fmt.Sprintf("%s.%d", u.name, n)
	}
	region := u.m.heap.AllocateTaskRegion()
	child := u.m.newUnit(TaskUnit, name, region)
	h := u.register(child)
	program := u.m.spawnProgram
	go func() {
		var result *multierror.Error
		// Acquire only fails when ctx is done.
		if err := tasks.sem.Acquire(ctx, 1); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s error: %w", child.name, err))
		} else {
			err := child.runToCompletion(ctx, program)
			// The slot is released before joining children so nested tasks
			// can run.
			tasks.sem.Release(1)
			result = multierror.Append(result, err)
		}
		for _, nested := range child.handles {
			result = multierror.Append(result, nested.Wait())
		}
		result = multierror.Append(result, child.release())
		h.finish(result.ErrorOrNil())
	}()
	return nil
}

// release returns the unit's heap region.
func (u *unit) release() error {
	return u.m.heap.ReleaseRegion(u.region)
}
