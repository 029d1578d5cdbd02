package heap

import (
	"cmp"
	"iter"
	"sync"
)

// TiedTopBoundedHeap is a TopBoundedHeap that additionally keeps an
// unbounded side list of elements tied with the current boundary key.
// Dropping an element exactly as good as the k-th best would make
// "all elements at least as good as the k-th best" unanswerable; the
// tie list preserves completeness under capacity pressure.
//
// Peek and Poll are serialized against each other so the choice
// between tie list and core is consistent at the instant of the call;
// Add is not serialized against them and concurrent use needs external
// coordination.
type TiedTopBoundedHeap[E any] struct {
	core *TopBoundedHeap[E]
	ties []E
	mu   sync.Mutex
}

// NewTiedTopBoundedHeap creates a tie-preserving bounded heap using
// natural ordering.
func NewTiedTopBoundedHeap[E cmp.Ordered](maxSize int) *TiedTopBoundedHeap[E] {
	return NewTiedTopBoundedHeapCmp(maxSize, Natural[E]())
}

// NewTiedTopBoundedHeapCmp creates a tie-preserving bounded heap with
// maximum size maxSize (unless tied) over the given comparator.
func NewTiedTopBoundedHeapCmp[E any](maxSize int, c Comparator[E]) *TiedTopBoundedHeap[E] {
	h := &TiedTopBoundedHeap[E]{
		core: NewTopBoundedHeapCmp(maxSize, c),
	}
	h.core.overflow = h.handleOverflow
	return h
}

// Add inserts an element.
func (h *TiedTopBoundedHeap[E]) Add(e E) {
	h.core.Add(e)
}

// handleOverflow receives each element falling out of the core and
// decides the fate of the tie list. Three transitions exist:
// the evicted element ties the new boundary and joins the list; the
// list holds ties of an older, worse boundary and is superseded before
// the element joins; or the boundary moved to a different key and the
// list is cleared outright.
func (h *TiedTopBoundedHeap[E]) handleOverflow(e E) {
	boundary, ok := h.core.Heap.Peek()
	if ok && h.core.cmp(e, boundary) == 0 {
		if len(h.ties) > 0 && h.core.cmp(e, h.ties[0]) < 0 {
			// Stale ties of a previous, worse boundary.
			h.ties = h.ties[:0]
		}
		h.ties = append(h.ties, e)
		return
	}
	h.ties = h.ties[:0]
}

// Size returns the number of retained elements, core and ties
// combined.
func (h *TiedTopBoundedHeap[E]) Size() int {
	return h.core.Len() + len(h.ties)
}

// IsEmpty reports whether no elements are retained.
func (h *TiedTopBoundedHeap[E]) IsEmpty() bool {
	return h.Size() == 0
}

// Peek returns a boundary-valued element without removing it,
// preferring the tie list. Once ties exist, every tie and the boundary
// share one key, so which is reported first is immaterial.
func (h *TiedTopBoundedHeap[E]) Peek() (E, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.ties) > 0 {
		return h.ties[0], true
	}
	return h.core.Peek()
}

// Poll removes and returns a boundary-valued element, preferring the
// tie list.
func (h *TiedTopBoundedHeap[E]) Poll() (E, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.ties) > 0 {
		e := h.ties[0]
		h.ties = h.ties[1:]
		return e, true
	}
	return h.core.Poll()
}

// Contains reports whether an element comparing equal to e is retained
// in either collection.
func (h *TiedTopBoundedHeap[E]) Contains(e E) bool {
	for _, t := range h.ties {
		if h.core.cmp(t, e) == 0 {
			return true
		}
	}
	return h.core.Contains(e)
}

// All iterates once over the tie list, then the core. The sequence is
// lazy and not restartable; no ordering is guaranteed across the
// boundary.
func (h *TiedTopBoundedHeap[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range h.ties {
			if !yield(e) {
				return
			}
		}
		for e := range h.core.All() {
			if !yield(e) {
				return
			}
		}
	}
}

// Clear empties both collections.
func (h *TiedTopBoundedHeap[E]) Clear() {
	h.core.Clear()
	h.ties = h.ties[:0]
}
