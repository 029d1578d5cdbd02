package tree_test

import (
	"testing"

	"github.com/vs74/pagetree/tree"
)

func TestPathDescendSharesAncestors(t *testing.T) {
	rootEntry := tree.NewDirectoryEntry(1, nil)
	root := tree.NewIndexTreePath(rootEntry)
	if root.Depth() != 1 || root.Parent() != nil || root.Entry() != rootEntry {
		t.Fatalf("Unexpected root path: depth=%d parent=%v", root.Depth(), root.Parent())
	}

	left := root.Descend(tree.NewDirectoryEntry(2, nil))
	right := root.Descend(tree.NewDirectoryEntry(3, nil))
	if left.Depth() != 2 || right.Depth() != 2 {
		t.Fatalf("Expected depth 2 for both branches, got %d and %d", left.Depth(), right.Depth())
	}
	if left.Parent() != root || right.Parent() != root {
		t.Fatal("Expected both branches to share the root component")
	}
	if root.Depth() != 1 {
		t.Fatalf("Descend must not modify the receiver, root depth is now %d", root.Depth())
	}

	leafEntry := tree.NewLeafEntry("x")
	deep := left.Descend(leafEntry)
	if deep.Depth() != 3 || deep.Parent() != left || deep.Entry() != leafEntry {
		t.Fatalf("Unexpected extended path: depth=%d", deep.Depth())
	}
}
