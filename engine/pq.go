package engine

import "container/heap"

// tickHeap is a min-heap of pending tick numbers, the Go equivalent of
// lib.rs's `pq: BTreeSet<u32>` (sorted, duplicate-free, smallest-first).
// No third-party priority-queue library appears anywhere in the retrieved
// pack; container/heap is the idiomatic standard-library stand-in for a
// BTreeSet used purely as an ordered set (DESIGN.md).
type tickHeap []uint32

func (h tickHeap) Len() int            { return len(h) }
func (h tickHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h tickHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *tickHeap) Push(x any)         { *h = append(*h, x.(uint32)) }
func (h *tickHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// tickQueue is a duplicate-free, ascending priority queue of tick numbers.
type tickQueue struct {
	h      tickHeap
	member map[uint32]bool
}

func newTickQueue() *tickQueue {
	return &tickQueue{member: make(map[uint32]bool)}
}

// Insert adds tick if not already queued.
func (q *tickQueue) Insert(tick uint32) {
	if q.member[tick] {
		return
	}
	q.member[tick] = true
	heap.Push(&q.h, tick)
}

// First returns the smallest queued tick without removing it.
func (q *tickQueue) First() (uint32, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0], true
}

// PopFirst removes and returns the smallest queued tick.
func (q *tickQueue) PopFirst() (uint32, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	v := heap.Pop(&q.h).(uint32)
	delete(q.member, v)
	return v, true
}
