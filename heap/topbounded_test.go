package heap

import (
	"sort"
	"testing"
)

func TestTopBoundedKeepsSmallest(t *testing.T) {
	h := NewTopBoundedHeap[int](3)
	for _, v := range []int{5, 1, 3, 2, 1} {
		h.Add(v)
	}
	if h.Len() != 3 {
		t.Fatalf("Expected 3 retained elements, got %d", h.Len())
	}

	var got []int
	for h.Len() > 0 {
		v, _ := h.Poll()
		got = append(got, v)
	}
	sort.Ints(got)
	want := []int{1, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected retained multiset %v, got %v", want, got)
		}
	}
}

func TestTopBoundedBoundaryAtRoot(t *testing.T) {
	h := NewTopBoundedHeap[int](3)
	for _, v := range []int{9, 4, 7, 2} {
		h.Add(v)
	}
	boundary, ok := h.Peek()
	if !ok || boundary != 7 {
		t.Fatalf("Expected boundary 7 at the root, got %d (ok=%v)", boundary, ok)
	}
}

func TestTopBoundedOverflowCallback(t *testing.T) {
	var dropped []int
	h := NewTopBoundedHeapCmp(2, Natural[int]())
	h.overflow = func(e int) { dropped = append(dropped, e) }

	h.Add(4)
	h.Add(2)
	if len(dropped) != 0 {
		t.Fatalf("No overflow expected while under capacity, got %v", dropped)
	}

	// 1 displaces the boundary 4.
	h.Add(1)
	if len(dropped) != 1 || dropped[0] != 4 {
		t.Fatalf("Expected evicted element 4, got %v", dropped)
	}

	// 9 is worse than the boundary and is itself the overflow.
	h.Add(9)
	if len(dropped) != 2 || dropped[1] != 9 {
		t.Fatalf("Expected rejected element 9, got %v", dropped)
	}
	if h.Len() != 2 {
		t.Fatalf("Expected length to stay at 2, got %d", h.Len())
	}
}

func TestTopBoundedRejectsInvalidSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic for maxSize 0")
		}
	}()
	NewTopBoundedHeap[int](0)
}
