package tree_test

import (
	"errors"
	"testing"

	"github.com/vs74/pagetree/pagefile"
	"github.com/vs74/pagetree/tree"
)

// stubVariant is a minimal tree variant for exercising the core: fixed
// capacities, a leaf root at page 1 and no bookkeeping.
type stubVariant struct {
	tree.NoopHooks
	caps tree.Capacities
}

func (v *stubVariant) InitializeCapacities(pageSize int, exampleLeaf *tree.Entry) (tree.Capacities, error) {
	return v.caps, nil
}

func (v *stubVariant) CreateEmptyRoot(exampleLeaf *tree.Entry) (*tree.Node, error) {
	return tree.NewLeafNode(v.caps.LeafCapacity), nil
}

func (v *stubVariant) CreateRootEntry() *tree.Entry {
	return tree.NewDirectoryEntry(1, nil)
}

func (v *stubVariant) CreateNewLeafNode() *tree.Node {
	return tree.NewLeafNode(v.caps.LeafCapacity)
}

func (v *stubVariant) CreateNewDirectoryNode() *tree.Node {
	return tree.NewDirectoryNode(v.caps.DirCapacity)
}

func newStubVariant() *stubVariant {
	return &stubVariant{caps: tree.Capacities{
		DirCapacity:  8,
		LeafCapacity: 16,
		DirMinimum:   3,
		LeafMinimum:  6,
	}}
}

func TestBootstrapFreshStore(t *testing.T) {
	v := newStubVariant()
	ix := tree.New(pagefile.NewMemStore(1024), v)

	if err := ix.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if ix.Initialized() {
		t.Fatal("Fresh store must not be initialized before the example leaf bootstrap")
	}

	if err := ix.InitializeWithExampleLeaf(tree.NewLeafEntry("example")); err != nil {
		t.Fatalf("Failed to bootstrap with example leaf: %v", err)
	}
	if !ix.Initialized() {
		t.Fatal("Expected tree to be initialized after bootstrap")
	}
	if ix.Capacities() != v.caps {
		t.Fatalf("Expected capacities %+v, got %+v", v.caps, ix.Capacities())
	}

	root, err := ix.Root()
	if err != nil {
		t.Fatalf("Failed to read root: %v", err)
	}
	if !root.IsLeaf() || root.NumEntries() != 0 {
		t.Fatalf("Expected empty leaf root, got leaf=%v entries=%d", root.IsLeaf(), root.NumEntries())
	}
	if root.PageID() != ix.RootID() {
		t.Fatalf("Root page id %d does not match RootID %d", root.PageID(), ix.RootID())
	}

	// Resolving the root id must end up at the same page as Root.
	n, err := ix.GetNode(ix.RootID())
	if err != nil {
		t.Fatalf("Failed to get root node by id: %v", err)
	}
	if n.PageID() != root.PageID() {
		t.Fatalf("GetNode(RootID) returned page %d, Root returned %d", n.PageID(), root.PageID())
	}
	if !ix.IsRoot(n) {
		t.Fatal("Expected IsRoot to hold for the root node")
	}
}

func TestReattachAdoptsPersistedHeader(t *testing.T) {
	dir := t.TempDir()
	created := newStubVariant()

	file := pagefile.NewFileStore(dir, pagefile.WithPageSize(512))
	ix := tree.New(file, created)
	if err := ix.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := ix.InitializeWithExampleLeaf(tree.NewLeafEntry("example")); err != nil {
		t.Fatalf("Failed to bootstrap: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	// Reattach with deliberately different configured parameters. The
	// persisted header must win.
	other := newStubVariant()
	other.caps = tree.Capacities{DirCapacity: 99, LeafCapacity: 99, DirMinimum: 1, LeafMinimum: 1}
	reopened := tree.New(pagefile.NewFileStore(dir), other, tree.WithCapacities(other.caps))
	if err := reopened.Initialize(); err != nil {
		t.Fatalf("Failed to reattach: %v", err)
	}
	if !reopened.Initialized() {
		t.Fatal("Expected reattach to mark the tree initialized")
	}
	if reopened.Capacities() != created.caps {
		t.Fatalf("Expected persisted capacities %+v, got %+v", created.caps, reopened.Capacities())
	}
	if reopened.PageSize() != 512 {
		t.Fatalf("Expected persisted page size 512, got %d", reopened.PageSize())
	}

	if err := reopened.CheckCapacities(created.caps); err != nil {
		t.Fatalf("CheckCapacities rejected the creation parameters: %v", err)
	}
	if err := reopened.CheckCapacities(other.caps); err == nil {
		t.Fatal("CheckCapacities accepted mismatching parameters")
	}

	root, err := reopened.Root()
	if err != nil {
		t.Fatalf("Failed to read root after reattach: %v", err)
	}
	if !root.IsLeaf() {
		t.Fatal("Expected the persisted leaf root after reattach")
	}
}

func TestRootAccessorsPanicBeforeBootstrap(t *testing.T) {
	ix := tree.New(pagefile.NewMemStore(1024), newStubVariant())

	accessors := map[string]func(){
		"RootEntry": func() { ix.RootEntry() },
		"RootID":    func() { ix.RootID() },
		"Root":      func() { ix.Root() },
		"RootPath":  func() { ix.RootPath() },
	}
	for name, call := range accessors {
		func() {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("%s did not panic before bootstrap", name)
				}
				err, ok := r.(error)
				if !ok || !errors.Is(err, tree.ErrNotInitialized) {
					t.Fatalf("%s panicked with %v, expected ErrNotInitialized", name, r)
				}
			}()
			call()
		}()
	}
}

func TestLeafEntryPageIDPanics(t *testing.T) {
	payloads := []any{nil, "key", 42, struct{ A string }{"x"}}
	for _, payload := range payloads {
		e := tree.NewLeafEntry(payload)
		func() {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, tree.ErrLeafEntryPageID) {
					t.Fatalf("PageID on leaf entry with payload %v panicked with %v", payload, r)
				}
			}()
			e.PageID()
		}()
	}
}

func TestWriteAndDeleteNode(t *testing.T) {
	v := newStubVariant()
	ix := tree.New(pagefile.NewMemStore(1024), v)
	if err := ix.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := ix.InitializeWithExampleLeaf(tree.NewLeafEntry("example")); err != nil {
		t.Fatalf("Failed to bootstrap: %v", err)
	}

	n := v.CreateNewLeafNode()
	n.AddEntry(tree.NewLeafEntry("a"))
	n.AddEntry(tree.NewLeafEntry("b"))
	if err := ix.WriteNode(n); err != nil {
		t.Fatalf("Failed to write node: %v", err)
	}
	if n.PageID() == 0 || n.PageID() == ix.RootID() {
		t.Fatalf("Expected a fresh non-root page id, got %d", n.PageID())
	}

	read, err := ix.GetNode(n.PageID())
	if err != nil {
		t.Fatalf("Failed to read node back: %v", err)
	}
	if !read.IsLeaf() || read.NumEntries() != 2 {
		t.Fatalf("Expected leaf node with 2 entries, got leaf=%v entries=%d", read.IsLeaf(), read.NumEntries())
	}
	if ix.IsRoot(read) {
		t.Fatal("Non-root node reported as root")
	}

	if err := ix.DeleteNode(read); err != nil {
		t.Fatalf("Failed to delete node: %v", err)
	}
	if _, err := ix.GetNode(n.PageID()); err == nil {
		t.Fatal("Expected error reading a deleted page")
	}

	stats := ix.PageFileStatistics()
	if stats.ReadOperations() == 0 || stats.WriteOperations() == 0 {
		t.Fatalf("Expected non-zero access counters, got reads=%d writes=%d",
			stats.ReadOperations(), stats.WriteOperations())
	}
}
