// Package heap implements the region allocator shared by execution units.
//
// A Heap owns a list of regions. Region zero is the global region created
// with the heap; thread and task units receive their own regions when they
// are spawned. Every allocation is charged against a single byte budget.
// Objects carry a tri-color mark but no collector walks them yet.
package heap

import (
	"fmt"
	"sync"

	"github.com/squidvm/squid/errz"
	"github.com/squidvm/squid/immediate"
	"github.com/squidvm/squid/internal/size"
)

var (
	ErrInvalidPointer = errz.New(errz.ErrHeap, "[ INVALID POINTER ]").WithCode(errz.Failure)
	ErrInvalidRegion  = errz.New(errz.ErrHeap, "[ INVALID REGION ]").WithCode(errz.Failure)
)

// GlobalRegion is the key of the region created with every heap.
const GlobalRegion = 0

// Color is the tri-color mark of an object.
type Color uint8

const (
	White Color = iota
	Gray
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// Pointer addresses an object: a region key and the object's key within it.
type Pointer struct {
	Region int
	Key    int
}

func (p Pointer) String() string {
	return fmt.Sprintf("%d:%d", p.Region, p.Key)
}

// Object is an allocated payload.
type Object struct {
	Kind  immediate.Type
	Data  []byte
	Size  int
	Color Color
}

// Stats summarizes heap usage.
type Stats struct {
	Capacity int
	Free     int
	Regions  int
	Threads  int
	Tasks    int
}

func (s Stats) String() string {
	return fmt.Sprintf("%s of %s free, %d regions (%d thread, %d task)",
		size.Format(s.Free), size.Format(s.Capacity),
		s.Regions, s.Threads, s.Tasks)
}

// Heap is a fixed-budget region allocator. It is safe for concurrent use.
type Heap struct {
	mu       sync.RWMutex
	regions  []*Region
	keys     keyPool
	live     int
	free     int
	capacity int
	threads  int
	tasks    int
}

// New returns a heap with the given byte budget and its global region.
func New(capacity int) *Heap {
	h := &Heap{
		free:     capacity,
		capacity: capacity,
	}
	h.addRegion(scopeGlobal)
	return h
}

// AllocateGlobalRegion adds another global region and returns its key.
func (h *Heap) AllocateGlobalRegion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addRegion(scopeGlobal)
}

// AllocateThreadRegion adds a region owned by a thread unit.
func (h *Heap) AllocateThreadRegion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.threads++
	return h.addRegion(scopeThread)
}

// AllocateTaskRegion adds a region owned by a task unit.
func (h *Heap) AllocateTaskRegion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks++
	return h.addRegion(scopeTask)
}

func (h *Heap) addRegion(s scope) int {
	key := h.keys.take()
	r := newRegion(key, s)
	if key == len(h.regions) {
		h.regions = append(h.regions, r)
	} else {
		h.regions[key] = r
	}
	h.live++
	return key
}

// ReleaseRegion drops a region, returning the bytes of all its objects to
// the budget. The global region cannot be released.
func (h *Heap) ReleaseRegion(key int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if key == GlobalRegion {
		return errz.New(errz.ErrHeap, "the global region cannot be released")
	}
	r, ok := h.region(key)
	if !ok {
		return ErrInvalidRegion
	}
	h.free += r.used()
	switch r.scope {
	case scopeThread:
		h.threads--
	case scopeTask:
		h.tasks--
	}
	h.regions[key] = nil
	h.keys.put(key)
	h.live--
	return nil
}

func (h *Heap) region(key int) (*Region, bool) {
	if key < 0 || key >= len(h.regions) || h.regions[key] == nil {
		return nil, false
	}
	return h.regions[key], true
}

// Allocate stores v in the given region and returns its pointer.
func (h *Heap) Allocate(region int, v immediate.Immediate) (Pointer, error) {
	data, err := immediate.Serialize(v)
	if err != nil {
		return Pointer{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.region(region)
	if !ok {
		return Pointer{}, ErrInvalidRegion
	}
	if len(data) > h.free {
		return Pointer{}, errz.New(errz.ErrHeap, "[ HEAP OVERFLOW ] requested %s, %s free",
			size.Format(len(data)), size.Format(h.free))
	}
	key := r.insert(&Object{
		Kind:  v.Type(),
		Data:  data,
		Size:  len(data),
		Color: White,
	})
	h.free -= len(data)
	return Pointer{Region: region, Key: key}, nil
}

// Get returns a copy of the object at p.
func (h *Heap) Get(p Pointer) (Object, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.region(p.Region)
	if !ok {
		return Object{}, ErrInvalidPointer
	}
	obj, ok := r.get(p.Key)
	if !ok {
		return Object{}, ErrInvalidPointer
	}
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	return cp, nil
}

// Load returns the value stored at p.
func (h *Heap) Load(p Pointer) (immediate.Immediate, error) {
	obj, err := h.Get(p)
	if err != nil {
		return nil, err
	}
	return immediate.Deserialize(obj.Kind, obj.Data)
}

// Free releases the object at p and returns its size to the budget. Freeing
// a pointer twice returns ErrInvalidPointer.
func (h *Heap) Free(p Pointer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.region(p.Region)
	if !ok {
		return ErrInvalidPointer
	}
	obj, ok := r.remove(p.Key)
	if !ok {
		return ErrInvalidPointer
	}
	h.free += obj.Size
	return nil
}

// Stats returns a snapshot of heap usage.
func (h *Heap) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Capacity: h.capacity,
		Free:     h.free,
		Regions:  h.live,
		Threads:  h.threads,
		Tasks:    h.tasks,
	}
}

// Available returns the bytes remaining in the budget.
func (h *Heap) Available() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.free
}
