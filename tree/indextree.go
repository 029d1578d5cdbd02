package tree

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrLeafEntryPageID is the panic value raised when a page id is
// requested from a leaf entry. Leaf entries have no page id by
// definition; asking for one would silently corrupt the tree if it
// returned anything, so it aborts instead.
var ErrLeafEntryPageID = stderrors.New("tree: leaf entries do not have page ids")

// ErrNotInitialized is the panic value raised when root accessors are
// used before either bootstrap path has completed.
var ErrNotInitialized = stderrors.New("tree: index tree is not initialized")

// Hooks is the extension surface a concrete tree variant implements to
// plug its own node sizing, root construction and bookkeeping into the
// core. The core stays generic over variant behavior; split, merge,
// insertion and search algorithms live entirely on the variant side.
type Hooks interface {
	// InitializeCapacities derives the four sizing parameters from the
	// page size and one representative leaf entry. Must be
	// deterministic given page size and payload shape.
	InitializeCapacities(pageSize int, exampleLeaf *Entry) (Capacities, error)

	// CreateEmptyRoot builds an empty root node sized for leaf entries.
	// The core writes it to the page file.
	CreateEmptyRoot(exampleLeaf *Entry) (*Node, error)

	// CreateRootEntry builds the entry designating the root node. Must
	// be idempotent and perform no I/O.
	CreateRootEntry() *Entry

	// CreateNewLeafNode builds an empty leaf node.
	CreateNewLeafNode() *Node

	// CreateNewDirectoryNode builds an empty directory node.
	CreateNewDirectoryNode() *Node

	// PreInsert runs before the variant inserts an entry.
	PreInsert(e *Entry)

	// PostDelete runs after the variant removes an entry.
	PostDelete(e *Entry)
}

// NoopHooks provides no-op PreInsert/PostDelete so variants without
// bookkeeping needs can embed it.
type NoopHooks struct{}

func (NoopHooks) PreInsert(*Entry)  {}
func (NoopHooks) PostDelete(*Entry) {}

// Option configures an IndexTree.
type Option func(*IndexTree)

// WithLogger sets the logger used for bootstrap tracing.
func WithLogger(log *zap.Logger) Option {
	return func(t *IndexTree) { t.log = log }
}

// WithCapacities presets the sizing parameters. A reattach overwrites
// them with the persisted header values.
func WithCapacities(caps Capacities) Option {
	return func(t *IndexTree) { t.caps = caps }
}

// IndexTree is the generic core shared by page-persisted, balanced
// tree indexes. It owns the mapping between the abstract tree and the
// pages of the backing store, the bootstrap/reattach protocol, the
// root entry lifecycle, and the node access path. It performs no
// locking of its own: a single logical owner drives mutations at a
// time and all durability concerns belong to the page file.
type IndexTree struct {
	file  PageFile
	hooks Hooks
	log   *zap.Logger

	caps        Capacities
	header      *TreeIndexHeader
	initialized bool
	rootEntry   *Entry
}

// New creates an uninitialized index tree over the given page file and
// variant hooks. One of Initialize or InitializeWithExampleLeaf must
// complete before the root accessors become valid.
func New(file PageFile, hooks Hooks, opts ...Option) *IndexTree {
	t := &IndexTree{
		file:  file,
		hooks: hooks,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize runs the bootstrap/reattach protocol: it builds a header
// from the currently configured parameters, hands it to the page file,
// and, if the file already held a tree, adopts the persisted
// parameters as authoritative and marks the tree initialized. For a
// freshly created file the parameters are left as configured and the
// variant is expected to complete bootstrap via
// InitializeWithExampleLeaf. In both cases the root entry is
// (re)computed through the variant hook.
func (t *IndexTree) Initialize() error {
	header := t.createHeader()
	existed, err := t.file.Initialize(header)
	if err != nil {
		return errors.Wrap(err, "initialize page file")
	}
	if existed {
		t.initializeFromHeader(header)
	}
	t.rootEntry = t.hooks.CreateRootEntry()
	return nil
}

// InitializeWithExampleLeaf completes bootstrap of a brand-new tree:
// capacities are derived from the page size and the representative
// leaf entry, an empty root is created and durably written, and the
// tree is marked initialized. Capacities are fixed for the remainder
// of the instance's lifetime afterwards.
func (t *IndexTree) InitializeWithExampleLeaf(exampleLeaf *Entry) error {
	caps, err := t.hooks.InitializeCapacities(t.file.PageSize(), exampleLeaf)
	if err != nil {
		return errors.Wrap(err, "initialize capacities")
	}
	t.caps = caps
	if t.header != nil {
		// The page file persists this header; keep it in sync with the
		// freshly derived parameters.
		t.header.setCapacities(caps)
	}

	root, err := t.hooks.CreateEmptyRoot(exampleLeaf)
	if err != nil {
		return errors.Wrap(err, "create empty root")
	}
	if err := t.file.WritePage(root); err != nil {
		return errors.Wrap(err, "write empty root")
	}

	t.rootEntry = t.hooks.CreateRootEntry()
	t.initialized = true
	t.log.Debug("created empty tree",
		zap.Int("pageSize", t.file.PageSize()),
		zap.Int("rootPageID", root.PageID()),
		zap.Int("maxDirEntries", caps.DirCapacity-1),
		zap.Int("minDirEntries", caps.DirMinimum),
		zap.Int("maxLeafEntries", caps.LeafCapacity-1),
		zap.Int("minLeafEntries", caps.LeafMinimum))
	return nil
}

func (t *IndexTree) createHeader() *TreeIndexHeader {
	t.header = NewTreeIndexHeader(t.file.PageSize(), t.caps)
	return t.header
}

func (t *IndexTree) initializeFromHeader(header *TreeIndexHeader) {
	t.caps = header.Capacities()
	t.initialized = true
	t.log.Debug("reattached to existing tree",
		zap.Int("pageSize", header.PageSize),
		zap.Int("dirCapacity", t.caps.DirCapacity),
		zap.Int("leafCapacity", t.caps.LeafCapacity),
		zap.Int("dirMinimum", t.caps.DirMinimum),
		zap.Int("leafMinimum", t.caps.LeafMinimum))
}

// Initialized reports whether a bootstrap path has completed.
func (t *IndexTree) Initialized() bool {
	return t.initialized
}

func (t *IndexTree) ensureInitialized() {
	if !t.initialized {
		panic(ErrNotInitialized)
	}
}

// Capacities returns the sizing parameters. They are the single source
// of truth the variant's split and merge algorithms must consult.
func (t *IndexTree) Capacities() Capacities {
	return t.caps
}

// CheckCapacities compares the adopted parameters against what the
// variant expects and fails fast on a mismatch, instead of proceeding
// with capacities the on-disk tree was not built with.
func (t *IndexTree) CheckCapacities(expected Capacities) error {
	if t.caps != expected {
		return errors.Errorf("capacity mismatch: header has %+v, variant expects %+v", t.caps, expected)
	}
	return nil
}

// RootEntry returns the entry designating the root node. Panics with
// ErrNotInitialized before bootstrap completes.
func (t *IndexTree) RootEntry() *Entry {
	t.ensureInitialized()
	return t.rootEntry
}

// SetRootEntry replaces the root entry. Root replacement during
// structural changes is a variant responsibility; the core only
// guarantees its accessors reflect it.
func (t *IndexTree) SetRootEntry(e *Entry) {
	t.ensureInitialized()
	t.rootEntry = e
}

// RootID returns the page id of the root node.
func (t *IndexTree) RootID() int {
	t.ensureInitialized()
	return t.rootEntry.PageID()
}

// Root re-reads the root node from the page file. No caching happens
// here beyond whatever the page file itself does.
func (t *IndexTree) Root() (*Node, error) {
	t.ensureInitialized()
	n, err := t.file.ReadPage(t.rootEntry.PageID())
	return n, errors.Wrap(err, "read root")
}

// IsRoot reports whether the given node is the root.
func (t *IndexTree) IsRoot(n *Node) bool {
	return n.PageID() == t.RootID()
}

// PageID resolves an entry to its page id. Panics with
// ErrLeafEntryPageID for leaf entries.
func (t *IndexTree) PageID(e *Entry) int {
	return e.PageID()
}

// GetNode returns the node stored under the given page id,
// short-circuiting to Root for the root's id.
func (t *IndexTree) GetNode(pageID int) (*Node, error) {
	if pageID == t.RootID() {
		return t.Root()
	}
	n, err := t.file.ReadPage(pageID)
	return n, errors.Wrapf(err, "read page %d", pageID)
}

// GetNodeForEntry returns the node a directory entry references.
// Panics for leaf entries, which reference no node.
func (t *IndexTree) GetNodeForEntry(e *Entry) (*Node, error) {
	return t.GetNode(e.PageID())
}

// WriteNode writes a node through to the page file. Capacity
// invariants are not validated here; that is the mutating variant's
// responsibility.
func (t *IndexTree) WriteNode(n *Node) error {
	return errors.Wrap(t.file.WritePage(n), "write node")
}

// DeleteNode removes a node's page from the page file.
func (t *IndexTree) DeleteNode(n *Node) error {
	return errors.Wrapf(t.file.DeletePage(n.PageID()), "delete page %d", n.PageID())
}

// RootPath returns the single-component path at the root.
func (t *IndexTree) RootPath() *IndexTreePath {
	t.ensureInitialized()
	return NewIndexTreePath(t.rootEntry)
}

// PageFileStatistics exposes the page file's access counters.
func (t *IndexTree) PageFileStatistics() PageFileStatistics {
	return t.file.Statistics()
}

// PageSize returns the page size of the backing storage.
func (t *IndexTree) PageSize() int {
	return t.file.PageSize()
}
