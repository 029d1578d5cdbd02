// Package heap provides bounded priority structures for top-k style
// searches, including a tie-preserving variant that never silently
// drops elements exactly as good as the current k-th best.
package heap

import (
	"cmp"
	"iter"
)

// Comparator orders elements: negative if a orders before b, zero if
// they tie, positive if a orders after b. Smaller elements are "better"
// throughout this package; for nearest-neighbor use this means smaller
// distances are retained.
type Comparator[E any] func(a, b E) int

// Natural returns a comparator using the natural ordering of E.
func Natural[E cmp.Ordered]() Comparator[E] {
	return cmp.Compare[E]
}

// Heap is a binary heap keeping the largest element, per the
// comparator, at its root. Not safe for concurrent use.
type Heap[E any] struct {
	data []E
	cmp  Comparator[E]
}

// NewHeap creates an empty heap over the given comparator.
func NewHeap[E any](c Comparator[E]) *Heap[E] {
	return &Heap[E]{cmp: c}
}

// Len returns the number of elements held.
func (h *Heap[E]) Len() int {
	return len(h.data)
}

// Add inserts an element.
func (h *Heap[E]) Add(e E) {
	h.data = append(h.data, e)
	h.siftUp(len(h.data) - 1)
}

// Peek returns the root element without removing it. The second return
// is false on an empty heap.
func (h *Heap[E]) Peek() (E, bool) {
	if len(h.data) == 0 {
		var zero E
		return zero, false
	}
	return h.data[0], true
}

// Poll removes and returns the root element. The second return is
// false on an empty heap.
func (h *Heap[E]) Poll() (E, bool) {
	if len(h.data) == 0 {
		var zero E
		return zero, false
	}
	root := h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	var zero E
	h.data[last] = zero
	h.data = h.data[:last]
	if len(h.data) > 0 {
		h.siftDown(0)
	}
	return root, true
}

// Clear removes all elements.
func (h *Heap[E]) Clear() {
	h.data = h.data[:0]
}

// Contains reports whether an element comparing equal to e is held.
func (h *Heap[E]) Contains(e E) bool {
	for _, x := range h.data {
		if h.cmp(x, e) == 0 {
			return true
		}
	}
	return false
}

// All iterates over the elements once, in heap order. The sequence is
// lazy and not restartable; mutating the heap during iteration is
// undefined.
func (h *Heap[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range h.data {
			if !yield(e) {
				return
			}
		}
	}
}

func (h *Heap[E]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.cmp(h.data[i], h.data[parent]) <= 0 {
			break
		}
		h.data[i], h.data[parent] = h.data[parent], h.data[i]
		i = parent
	}
}

func (h *Heap[E]) siftDown(i int) {
	n := len(h.data)
	for {
		largest := i
		left, right := 2*i+1, 2*i+2
		if left < n && h.cmp(h.data[left], h.data[largest]) > 0 {
			largest = left
		}
		if right < n && h.cmp(h.data[right], h.data[largest]) > 0 {
			largest = right
		}
		if largest == i {
			return
		}
		h.data[i], h.data[largest] = h.data[largest], h.data[i]
		i = largest
	}
}
