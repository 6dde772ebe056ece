package heap

import "container/heap"

// keyPool hands out the lowest unused non-negative key. Released keys are
// kept in a min-heap; fresh keys come from a counter.
type keyPool struct {
	released intHeap
	next     int
}

func (p *keyPool) take() int {
	if p.released.Len() > 0 {
		return heap.Pop(&p.released).(int)
	}
	key := p.next
	p.next++
	return key
}

func (p *keyPool) put(key int) {
	heap.Push(&p.released, key)
}

type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *intHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
