// Package repository holds global variables shared by every execution unit.
//
// A variable maps a numeric name to a variable pointer. The repository has a
// fixed capacity and is safe for concurrent use.
package repository

import (
	"sync"

	"github.com/squidvm/squid/errz"
)

var (
	ErrFull      = errz.New(errz.ErrRepository, "[ REPOSITORY FULL ]")
	ErrEmpty     = errz.New(errz.ErrRepository, "[ REPOSITORY EMPTY ]")
	ErrUndefined = errz.New(errz.ErrRepository, "undefined variable")
)

// Repository is a fixed-capacity map of variable names to pointers.
type Repository struct {
	mu       sync.RWMutex
	vars     map[uint64]uint64
	capacity int
}

// New returns an empty repository that holds at most capacity variables.
func New(capacity int) *Repository {
	return &Repository{
		vars:     make(map[uint64]uint64, capacity),
		capacity: capacity,
	}
}

// Add binds name to ptr. Adding fails once the repository holds capacity
// variables, even when name is already bound.
func (r *Repository) Add(name, ptr uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vars) == r.capacity {
		return ErrFull
	}
	r.vars[name] = ptr
	return nil
}

// Get returns the pointer bound to name.
func (r *Repository) Get(name uint64) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ptr, ok := r.vars[name]
	if !ok {
		return 0, ErrUndefined
	}
	return ptr, nil
}

// Pop removes name and returns its pointer. An empty repository reports
// ErrEmpty before the name is looked up.
func (r *Repository) Pop(name uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vars) == 0 {
		return 0, ErrEmpty
	}
	ptr, ok := r.vars[name]
	if !ok {
		return 0, ErrUndefined
	}
	delete(r.vars, name)
	return ptr, nil
}

// Remove deletes name.
func (r *Repository) Remove(name uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vars[name]; !ok {
		return ErrUndefined
	}
	delete(r.vars, name)
	return nil
}

// Clear removes every variable.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.vars)
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vars)
}

func (r *Repository) Capacity() int {
	return r.capacity
}
