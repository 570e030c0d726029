package distance

import "container/heap"

// Candidate pairs a node with its distance to the query that produced
// it. It is the common currency between search_layer's two heaps and
// the write buffer's brute-force scan.
type Candidate struct {
	ID       uint64
	Distance float32
}

// MinHeap orders candidates by ascending distance; search_layer uses
// it as the expansion frontier.
type MinHeap struct {
	items []Candidate
}

func NewMinHeap(capacityHint int) *MinHeap {
	return &MinHeap{items: make([]Candidate, 0, capacityHint)}
}

func (h *MinHeap) Len() int            { return len(h.items) }
func (h *MinHeap) Less(i, j int) bool  { return h.items[i].Distance < h.items[j].Distance }
func (h *MinHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *MinHeap) Push(x interface{})  { h.items = append(h.items, x.(Candidate)) }
func (h *MinHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func (h *MinHeap) PushCandidate(c Candidate) { heap.Push(h, c) }

func (h *MinHeap) PopCandidate() (Candidate, bool) {
	if h.Len() == 0 {
		return Candidate{}, false
	}
	return heap.Pop(h).(Candidate), true
}

// MaxHeap orders candidates by descending distance; search_layer uses
// it to hold the best ef results seen so far, evicting the farthest
// when it grows past ef.
type MaxHeap struct {
	items []Candidate
}

func NewMaxHeap(capacityHint int) *MaxHeap {
	return &MaxHeap{items: make([]Candidate, 0, capacityHint)}
}

func (h *MaxHeap) Len() int            { return len(h.items) }
func (h *MaxHeap) Less(i, j int) bool {
	if h.items[i].Distance != h.items[j].Distance {
		return h.items[i].Distance > h.items[j].Distance
	}
	return h.items[i].ID > h.items[j].ID
}
func (h *MaxHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *MaxHeap) Push(x interface{})  { h.items = append(h.items, x.(Candidate)) }
func (h *MaxHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func (h *MaxHeap) PushCandidate(c Candidate) { heap.Push(h, c) }

func (h *MaxHeap) PopCandidate() (Candidate, bool) {
	if h.Len() == 0 {
		return Candidate{}, false
	}
	return heap.Pop(h).(Candidate), true
}

// Top returns the farthest candidate without removing it.
func (h *MaxHeap) Top() (Candidate, bool) {
	if h.Len() == 0 {
		return Candidate{}, false
	}
	return h.items[0], true
}

// Sorted drains the heap and returns its contents ascending by
// distance, with NodeId as the tie-break, matching the results
// ordering guarantee at the coordinator boundary.
func (h *MaxHeap) Sorted() []Candidate {
	out := make([]Candidate, 0, h.Len())
	for h.Len() > 0 {
		c, _ := h.PopCandidate()
		out = append(out, c)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
