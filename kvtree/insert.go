package kvtree

import (
	"sort"

	"github.com/vs74/pagetree/tree"
)

// frame remembers a visited directory node and the index of the entry
// that was descended, so splits and merges can rewire ancestors
// without re-reading them.
type frame struct {
	node *tree.Node
	idx  int
}

// descendToLeaf walks from the root to the leaf responsible for key,
// recording the visited directory nodes.
func (kt *KVTree) descendToLeaf(key string) (*tree.Node, []frame, error) {
	node, err := kt.tree.Root()
	if err != nil {
		return nil, nil, err
	}
	var stack []frame
	for !node.IsLeaf() {
		idx := childIndex(node, key)
		stack = append(stack, frame{node: node, idx: idx})
		child, err := kt.tree.GetNodeForEntry(node.Entry(idx))
		if err != nil {
			return nil, nil, err
		}
		node = child
	}
	return node, stack, nil
}

// leafPos returns the position of key in a leaf node and whether an
// entry with exactly that key is present there.
func leafPos(n *tree.Node, key string) (int, bool) {
	pos := sort.Search(n.NumEntries(), func(i int) bool {
		return leafKV(n.Entry(i)).Key >= key
	})
	return pos, pos < n.NumEntries() && leafKV(n.Entry(pos)).Key == key
}

// Insert adds a key-value pair, overwriting the value if the key is
// already present. Nodes reaching capacity are split bottom-up; the
// root grows in place.
func (kt *KVTree) Insert(key, value string) error {
	entry := tree.NewLeafEntry(KeyValue{Key: key, Value: value})
	kt.PreInsert(entry)

	leaf, stack, err := kt.descendToLeaf(key)
	if err != nil {
		return err
	}

	pos, found := leafPos(leaf, key)
	if found {
		leaf.Entry(pos).SetPayload(KeyValue{Key: key, Value: value})
		return kt.tree.WriteNode(leaf)
	}

	leaf.InsertEntryAt(pos, entry)
	if err := kt.tree.WriteNode(leaf); err != nil {
		return err
	}
	if err := kt.updateHighs(leaf, stack); err != nil {
		return err
	}
	return kt.splitIfNeeded(leaf, stack)
}

// updateHighs walks the recorded path upward and raises routing high
// keys that no longer cover the subtree maximum.
func (kt *KVTree) updateHighs(node *tree.Node, stack []frame) error {
	if node.NumEntries() == 0 {
		return nil
	}
	high := highestKey(node)
	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		e := f.node.Entry(f.idx)
		if high <= entryHigh(e) {
			break
		}
		setHigh(e, high)
		if err := kt.tree.WriteNode(f.node); err != nil {
			return err
		}
		high = highestKey(f.node)
	}
	return nil
}

// splitIfNeeded splits overflowing nodes bottom-up along the recorded
// path. Reaching capacity entries signals the split; capacity-1 fit.
func (kt *KVTree) splitIfNeeded(node *tree.Node, stack []frame) error {
	caps := kt.tree.Capacities()
	for {
		capacity := caps.LeafCapacity
		if !node.IsLeaf() {
			capacity = caps.DirCapacity
		}
		if node.NumEntries() < capacity {
			return nil
		}

		if len(stack) == 0 {
			return kt.splitRoot(node)
		}
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		right := kt.newNodeLike(node)
		mid := node.NumEntries() / 2
		right.SetEntries(append(right.Entries(), node.Entries()[mid:]...))
		node.SetEntries(node.Entries()[:mid])

		// The new right node gets its page id on first write.
		if err := kt.tree.WriteNode(right); err != nil {
			return err
		}
		if err := kt.tree.WriteNode(node); err != nil {
			return err
		}

		// Rewire the parent: the left half keeps its page id and entry,
		// the right half gets a fresh directory entry next to it.
		setHigh(parent.node.Entry(parent.idx), highestKey(node))
		parent.node.InsertEntryAt(parent.idx+1,
			tree.NewDirectoryEntry(right.PageID(), routing{High: highestKey(right)}))
		if err := kt.tree.WriteNode(parent.node); err != nil {
			return err
		}

		node = parent.node
	}
}

// splitRoot moves the overflowing root's contents into two fresh
// children and rewrites the root page as a directory node over them.
// The root page id stays stable.
func (kt *KVTree) splitRoot(root *tree.Node) error {
	left := kt.newNodeLike(root)
	right := kt.newNodeLike(root)
	mid := root.NumEntries() / 2
	left.SetEntries(append(left.Entries(), root.Entries()[:mid]...))
	right.SetEntries(append(right.Entries(), root.Entries()[mid:]...))
	if err := kt.tree.WriteNode(left); err != nil {
		return err
	}
	if err := kt.tree.WriteNode(right); err != nil {
		return err
	}

	newRoot := kt.CreateNewDirectoryNode()
	newRoot.SetPageID(root.PageID())
	newRoot.AddEntry(tree.NewDirectoryEntry(left.PageID(), routing{High: highestKey(left)}))
	newRoot.AddEntry(tree.NewDirectoryEntry(right.PageID(), routing{High: highestKey(right)}))
	return kt.tree.WriteNode(newRoot)
}

func (kt *KVTree) newNodeLike(n *tree.Node) *tree.Node {
	if n.IsLeaf() {
		return kt.CreateNewLeafNode()
	}
	return kt.CreateNewDirectoryNode()
}
