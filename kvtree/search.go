package kvtree

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/vs74/pagetree/heap"
	"github.com/vs74/pagetree/tree"
)

// Find looks up a key and returns its value.
func (kt *KVTree) Find(key string) (string, bool, error) {
	node, err := kt.tree.Root()
	if err != nil {
		return "", false, err
	}
	for !node.IsLeaf() {
		node, err = kt.tree.GetNodeForEntry(node.Entry(childIndex(node, key)))
		if err != nil {
			return "", false, err
		}
	}
	pos, found := leafPos(node, key)
	if !found {
		return "", false, nil
	}
	return leafKV(node.Entry(pos)).Value, true, nil
}

// Range returns all pairs with lo <= key <= hi in key order.
func (kt *KVTree) Range(lo, hi string) ([]KeyValue, error) {
	root, err := kt.tree.Root()
	if err != nil {
		return nil, err
	}
	var out []KeyValue
	if err := kt.collectRange(root, lo, hi, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (kt *KVTree) collectRange(n *tree.Node, lo, hi string, out *[]KeyValue) error {
	if n.IsLeaf() {
		for _, e := range n.Entries() {
			kv := leafKV(e)
			if kv.Key >= lo && kv.Key <= hi {
				*out = append(*out, kv)
			}
		}
		return nil
	}
	for _, e := range n.Entries() {
		high := entryHigh(e)
		if high < lo {
			continue
		}
		child, err := kt.tree.GetNodeForEntry(e)
		if err != nil {
			return err
		}
		if err := kt.collectRange(child, lo, hi, out); err != nil {
			return err
		}
		if high >= hi {
			break
		}
	}
	return nil
}

// Len returns the number of stored pairs.
func (kt *KVTree) Len() (int, error) {
	root, err := kt.tree.Root()
	if err != nil {
		return 0, err
	}
	return kt.countEntries(root)
}

func (kt *KVTree) countEntries(n *tree.Node) (int, error) {
	if n.IsLeaf() {
		return n.NumEntries(), nil
	}
	total := 0
	for _, e := range n.Entries() {
		child, err := kt.tree.GetNodeForEntry(e)
		if err != nil {
			return 0, err
		}
		c, err := kt.countEntries(child)
		if err != nil {
			return 0, err
		}
		total += c
	}
	return total, nil
}

// Scored is one nearest-key result.
type Scored struct {
	KeyValue
	Distance int
}

// Nearest returns the k keys closest to query under prefix distance,
// plus every key tied with the k-th best: dropping exact ties at the
// boundary would make the result set depend on insertion order.
func (kt *KVTree) Nearest(query string, k int) ([]Scored, error) {
	if k < 1 {
		return nil, errors.New("k must be at least 1")
	}
	h := heap.NewTiedTopBoundedHeapCmp(k, func(a, b Scored) int {
		return a.Distance - b.Distance
	})
	if err := kt.collectNearest(kt.tree.RootPath(), query, h); err != nil {
		return nil, err
	}

	out := make([]Scored, 0, h.Size())
	for s := range h.All() {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// collectNearest streams every stored pair into the heap, extending
// the tree path while descending so ancestors stay shared.
func (kt *KVTree) collectNearest(path *tree.IndexTreePath, query string, h *heap.TiedTopBoundedHeap[Scored]) error {
	node, err := kt.tree.GetNodeForEntry(path.Entry())
	if err != nil {
		return err
	}
	if node.IsLeaf() {
		for _, e := range node.Entries() {
			kv := leafKV(e)
			h.Add(Scored{KeyValue: kv, Distance: prefixDistance(query, kv.Key)})
		}
		return nil
	}
	for _, e := range node.Entries() {
		if err := kt.collectNearest(path.Descend(e), query, h); err != nil {
			return err
		}
	}
	return nil
}

// prefixDistance is the number of non-shared trailing bytes of the two
// strings: identical strings are at distance 0, strings without a
// common prefix at len(a)+len(b).
func prefixDistance(a, b string) int {
	l := 0
	for l < len(a) && l < len(b) && a[l] == b[l] {
		l++
	}
	return len(a) + len(b) - 2*l
}
