// Package kvtree implements an ordered key-value tree variant on top
// of the generic index tree core. Leaf entries carry key-value pairs;
// directory entries carry the highest key of their subtree as routing
// payload. It exists both as a usable index and as the reference
// consumer of the core's extension hooks.
package kvtree

import (
	"encoding/json"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vs74/pagetree/tree"
)

// The root keeps the first allocated page id for the life of the tree.
// Growing happens in place: on root overflow the contents move into
// fresh children and the root page is rewritten as a directory node.
const rootPageID = 1

// KeyValue is the payload of one leaf entry.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// routing is the payload of directory entries: the highest key stored
// anywhere in the referenced subtree.
type routing struct {
	High string `json:"high"`
}

// KVTree is an ordered string-key tree persisted through a page file.
// Not safe for concurrent mutation; a single logical owner drives
// structure changes at a time.
type KVTree struct {
	tree *tree.IndexTree
	log  *zap.Logger

	inserts atomic.Int64
	deletes atomic.Int64
}

// Option configures a KVTree.
type Option func(*KVTree)

// WithLogger sets the logger passed through to the index tree core.
func WithLogger(log *zap.Logger) Option {
	return func(kt *KVTree) { kt.log = log }
}

func newKVTree(file tree.PageFile, opts ...Option) *KVTree {
	kt := &KVTree{log: zap.NewNop()}
	for _, opt := range opts {
		opt(kt)
	}
	kt.tree = tree.New(file, kt, tree.WithLogger(kt.log))
	return kt
}

// Create bootstraps a brand-new tree in the given page file. It fails
// if the file already holds one.
func Create(file tree.PageFile, opts ...Option) (*KVTree, error) {
	kt := newKVTree(file, opts...)
	if err := kt.tree.Initialize(); err != nil {
		return nil, err
	}
	if kt.tree.Initialized() {
		return nil, errors.New("page file already holds a tree, use Open")
	}
	if err := kt.tree.InitializeWithExampleLeaf(exampleLeaf()); err != nil {
		return nil, err
	}
	return kt, nil
}

// Open reattaches to a tree previously created in the given page file.
// The persisted header parameters are authoritative; Open fails fast
// if they disagree with what this variant would derive for the same
// page size.
func Open(file tree.PageFile, opts ...Option) (*KVTree, error) {
	kt := newKVTree(file, opts...)
	if err := kt.tree.Initialize(); err != nil {
		return nil, err
	}
	if !kt.tree.Initialized() {
		return nil, errors.New("no tree found in page file, use Create")
	}
	expected, err := kt.InitializeCapacities(kt.tree.PageSize(), exampleLeaf())
	if err != nil {
		return nil, err
	}
	if err := kt.tree.CheckCapacities(expected); err != nil {
		return nil, err
	}
	return kt, nil
}

// exampleLeaf is the representative leaf entry capacities are derived
// from. Its shape, not its contents, matters: capacity derivation must
// be deterministic across Create and Open.
func exampleLeaf() *tree.Entry {
	return tree.NewLeafEntry(KeyValue{Key: "example-key-0000", Value: "example-value-000000000000000000"})
}

// InitializeCapacities derives node sizing from the page size and the
// serialized size of the example entries. Minima sit at 40% of the
// respective maximum entry count.
func (kt *KVTree) InitializeCapacities(pageSize int, exampleLeaf *tree.Entry) (tree.Capacities, error) {
	leafData, err := json.Marshal(exampleLeaf)
	if err != nil {
		return tree.Capacities{}, errors.Wrap(err, "marshal example leaf entry")
	}
	dirData, err := json.Marshal(tree.NewDirectoryEntry(1<<30, routing{High: leafKV(exampleLeaf).Key}))
	if err != nil {
		return tree.Capacities{}, errors.Wrap(err, "marshal example directory entry")
	}

	caps := tree.Capacities{
		LeafCapacity: pageSize/len(leafData) + 1,
		DirCapacity:  pageSize/len(dirData) + 1,
	}
	if caps.LeafCapacity < 4 || caps.DirCapacity < 4 {
		return tree.Capacities{}, errors.Errorf("page size %d too small for even three entries per node", pageSize)
	}
	caps.LeafMinimum = max(1, (caps.LeafCapacity-1)*2/5)
	caps.DirMinimum = max(2, (caps.DirCapacity-1)*2/5)
	return caps, nil
}

// CreateEmptyRoot builds the initial empty root, a leaf node. The core
// writes it, which pins the root page id.
func (kt *KVTree) CreateEmptyRoot(exampleLeaf *tree.Entry) (*tree.Node, error) {
	return kt.CreateNewLeafNode(), nil
}

// CreateRootEntry designates the root node. The root page id never
// changes after bootstrap, so this is trivially idempotent.
func (kt *KVTree) CreateRootEntry() *tree.Entry {
	return tree.NewDirectoryEntry(rootPageID, routing{})
}

// CreateNewLeafNode builds an empty leaf node sized to capacity.
func (kt *KVTree) CreateNewLeafNode() *tree.Node {
	return tree.NewLeafNode(kt.tree.Capacities().LeafCapacity)
}

// CreateNewDirectoryNode builds an empty directory node sized to
// capacity.
func (kt *KVTree) CreateNewDirectoryNode() *tree.Node {
	return tree.NewDirectoryNode(kt.tree.Capacities().DirCapacity)
}

// PreInsert counts insertions.
func (kt *KVTree) PreInsert(e *tree.Entry) {
	kt.inserts.Add(1)
}

// PostDelete counts deletions.
func (kt *KVTree) PostDelete(e *tree.Entry) {
	kt.deletes.Add(1)
}

// OpCounts returns the number of PreInsert and PostDelete invocations.
func (kt *KVTree) OpCounts() (inserts, deletes int64) {
	return kt.inserts.Load(), kt.deletes.Load()
}

// Index exposes the underlying index tree core.
func (kt *KVTree) Index() *tree.IndexTree {
	return kt.tree
}

// Capacities returns the adopted sizing parameters.
func (kt *KVTree) Capacities() tree.Capacities {
	return kt.tree.Capacities()
}

// PageSize returns the page size of the backing store.
func (kt *KVTree) PageSize() int {
	return kt.tree.PageSize()
}

// Statistics returns the page access counters of the backing store.
func (kt *KVTree) Statistics() tree.PageFileStatistics {
	return kt.tree.PageFileStatistics()
}

// leafKV decodes a leaf entry payload. Payloads arrive either as typed
// values (fresh in-memory entries) or as generic JSON maps (entries
// read back from a page file).
func leafKV(e *tree.Entry) KeyValue {
	switch p := e.Payload().(type) {
	case KeyValue:
		return p
	case map[string]any:
		kv := KeyValue{}
		if s, ok := p["key"].(string); ok {
			kv.Key = s
		}
		if s, ok := p["value"].(string); ok {
			kv.Value = s
		}
		return kv
	default:
		panic(errors.Errorf("kvtree: unexpected leaf payload type %T", p))
	}
}

// entryHigh decodes the routing high key of a directory entry.
func entryHigh(e *tree.Entry) string {
	switch p := e.Payload().(type) {
	case routing:
		return p.High
	case map[string]any:
		s, _ := p["high"].(string)
		return s
	case nil:
		return ""
	default:
		panic(errors.Errorf("kvtree: unexpected routing payload type %T", p))
	}
}

func setHigh(e *tree.Entry, high string) {
	e.SetPayload(routing{High: high})
}

// highestKey returns the largest key stored in the subtree rooted at n,
// relying on routing highs being current.
func highestKey(n *tree.Node) string {
	last := n.Entry(n.NumEntries() - 1)
	if n.IsLeaf() {
		return leafKV(last).Key
	}
	return entryHigh(last)
}

// childIndex picks the directory entry to descend for key: the first
// child whose high key covers it, the rightmost child otherwise.
func childIndex(n *tree.Node, key string) int {
	for i, e := range n.Entries() {
		if key <= entryHigh(e) {
			return i
		}
	}
	return n.NumEntries() - 1
}
