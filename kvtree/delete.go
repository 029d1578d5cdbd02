package kvtree

import "github.com/vs74/pagetree/tree"

// Delete removes a key and reports whether it was present. Nodes
// falling below their minimum borrow from a sibling or merge with one;
// a directory root left with a single child collapses into it. The
// root itself is exempt from the minimum.
func (kt *KVTree) Delete(key string) (bool, error) {
	leaf, stack, err := kt.descendToLeaf(key)
	if err != nil {
		return false, err
	}

	pos, found := leafPos(leaf, key)
	if !found {
		return false, nil
	}
	removed := leaf.DeleteEntryAt(pos)
	if err := kt.tree.WriteNode(leaf); err != nil {
		return false, err
	}
	kt.PostDelete(removed)

	if err := kt.shrinkHighs(leaf, stack); err != nil {
		return true, err
	}
	if err := kt.rebalance(leaf, stack); err != nil {
		return true, err
	}
	return true, nil
}

// shrinkHighs lowers routing high keys along the recorded path after
// a subtree maximum shrank. Stale (too high) routing keys would still
// route correctly, but keeping them tight keeps reattached trees
// byte-comparable to freshly built ones.
func (kt *KVTree) shrinkHighs(node *tree.Node, stack []frame) error {
	if node.NumEntries() == 0 {
		return nil
	}
	high := highestKey(node)
	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		e := f.node.Entry(f.idx)
		if entryHigh(e) == high {
			break
		}
		setHigh(e, high)
		if err := kt.tree.WriteNode(f.node); err != nil {
			return err
		}
		if f.idx != f.node.NumEntries()-1 {
			break
		}
		high = highestKey(f.node)
	}
	return nil
}

// rebalance restores minimum occupancy bottom-up along the recorded
// path.
func (kt *KVTree) rebalance(node *tree.Node, stack []frame) error {
	caps := kt.tree.Capacities()
	for len(stack) > 0 {
		min := caps.LeafMinimum
		if !node.IsLeaf() {
			min = caps.DirMinimum
		}
		if node.NumEntries() >= min {
			return nil
		}

		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if parent.node.NumEntries() >= 2 {
			borrowed, err := kt.borrow(parent, node, min)
			if err != nil {
				return err
			}
			if borrowed {
				return nil
			}
			if err := kt.merge(parent, node); err != nil {
				return err
			}
		}
		node = parent.node
	}

	// node is the root here.
	if !node.IsLeaf() && node.NumEntries() == 1 {
		return kt.collapseRoot(node)
	}
	return nil
}

// borrow moves one entry from an adjacent sibling holding more than
// its minimum.
func (kt *KVTree) borrow(parent frame, node *tree.Node, min int) (bool, error) {
	if parent.idx > 0 {
		left, err := kt.tree.GetNodeForEntry(parent.node.Entry(parent.idx - 1))
		if err != nil {
			return false, err
		}
		if left.NumEntries() > min {
			node.InsertEntryAt(0, left.DeleteEntryAt(left.NumEntries()-1))
			setHigh(parent.node.Entry(parent.idx-1), highestKey(left))
			if err := kt.tree.WriteNode(left); err != nil {
				return false, err
			}
			if err := kt.tree.WriteNode(node); err != nil {
				return false, err
			}
			return true, kt.tree.WriteNode(parent.node)
		}
	}
	if parent.idx < parent.node.NumEntries()-1 {
		right, err := kt.tree.GetNodeForEntry(parent.node.Entry(parent.idx + 1))
		if err != nil {
			return false, err
		}
		if right.NumEntries() > min {
			node.AddEntry(right.DeleteEntryAt(0))
			setHigh(parent.node.Entry(parent.idx), highestKey(node))
			if err := kt.tree.WriteNode(right); err != nil {
				return false, err
			}
			if err := kt.tree.WriteNode(node); err != nil {
				return false, err
			}
			return true, kt.tree.WriteNode(parent.node)
		}
	}
	return false, nil
}

// merge folds the underflowed node into an adjacent sibling and drops
// the emptied page.
func (kt *KVTree) merge(parent frame, node *tree.Node) error {
	if parent.idx > 0 {
		left, err := kt.tree.GetNodeForEntry(parent.node.Entry(parent.idx - 1))
		if err != nil {
			return err
		}
		left.SetEntries(append(left.Entries(), node.Entries()...))
		setHigh(parent.node.Entry(parent.idx-1), highestKey(left))
		parent.node.DeleteEntryAt(parent.idx)
		if err := kt.tree.WriteNode(left); err != nil {
			return err
		}
		if err := kt.tree.WriteNode(parent.node); err != nil {
			return err
		}
		return kt.tree.DeleteNode(node)
	}

	right, err := kt.tree.GetNodeForEntry(parent.node.Entry(parent.idx + 1))
	if err != nil {
		return err
	}
	node.SetEntries(append(node.Entries(), right.Entries()...))
	setHigh(parent.node.Entry(parent.idx), highestKey(node))
	parent.node.DeleteEntryAt(parent.idx + 1)
	if err := kt.tree.WriteNode(node); err != nil {
		return err
	}
	if err := kt.tree.WriteNode(parent.node); err != nil {
		return err
	}
	return kt.tree.DeleteNode(right)
}

// collapseRoot replaces a single-child directory root with that
// child's contents, keeping the root page id.
func (kt *KVTree) collapseRoot(root *tree.Node) error {
	child, err := kt.tree.GetNodeForEntry(root.Entry(0))
	if err != nil {
		return err
	}
	newRoot := kt.newNodeLike(child)
	newRoot.SetPageID(root.PageID())
	newRoot.SetEntries(append(newRoot.Entries(), child.Entries()...))
	if err := kt.tree.WriteNode(newRoot); err != nil {
		return err
	}
	return kt.tree.DeleteNode(child)
}
