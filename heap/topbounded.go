package heap

import "cmp"

// TopBoundedHeap retains the maxSize best elements of a stream, where
// "best" means smallest under the comparator. The worst retained
// element, called the boundary, sits at the root and is the first to
// be evicted. Every element that falls out of the heap, whether
// evicted or rejected on arrival, is routed through the overflow
// callback.
type TopBoundedHeap[E any] struct {
	*Heap[E]
	maxSize  int
	overflow func(E)
}

// NewTopBoundedHeap creates a bounded heap using natural ordering.
func NewTopBoundedHeap[E cmp.Ordered](maxSize int) *TopBoundedHeap[E] {
	return NewTopBoundedHeapCmp(maxSize, Natural[E]())
}

// NewTopBoundedHeapCmp creates a bounded heap with maximum size
// maxSize over the given comparator. maxSize must be at least 1.
func NewTopBoundedHeapCmp[E any](maxSize int, c Comparator[E]) *TopBoundedHeap[E] {
	if maxSize < 1 {
		panic("heap: maximum size must be at least 1")
	}
	return &TopBoundedHeap[E]{
		Heap:    NewHeap(c),
		maxSize: maxSize,
	}
}

// MaxSize returns the retention bound K.
func (h *TopBoundedHeap[E]) MaxSize() int {
	return h.maxSize
}

// Add inserts an element. Once the heap is full, an element only
// displaces the current worst if it compares strictly better; the
// displaced (or rejected) element is handed to the overflow callback
// after the boundary has settled.
func (h *TopBoundedHeap[E]) Add(e E) {
	if h.Heap.Len() < h.maxSize {
		h.Heap.Add(e)
		return
	}
	worst, _ := h.Heap.Peek()
	if h.cmp(e, worst) < 0 {
		h.Heap.Poll()
		h.Heap.Add(e)
		h.handleOverflow(worst)
	} else {
		h.handleOverflow(e)
	}
}

func (h *TopBoundedHeap[E]) handleOverflow(e E) {
	if h.overflow != nil {
		h.overflow(e)
	}
}
