package tree

// PageFileStatistics exposes a page file's access counters.
type PageFileStatistics interface {
	// ReadOperations is the number of page reads performed so far.
	ReadOperations() int64
	// WriteOperations is the number of page writes and deletes
	// performed so far.
	WriteOperations() int64
}

// PageFile is the narrow storage interface the index tree consumes.
// The core never touches bytes, only page ids and nodes; serialization
// of node contents is entirely the page file's concern.
type PageFile interface {
	// PageSize returns the configured size of one page in bytes.
	PageSize() int

	// Initialize attaches the page file to its backing storage. If the
	// storage already holds a valid header, its persisted values are
	// copied into header and Initialize returns true; the caller must
	// treat those values as authoritative. Otherwise the storage is
	// freshly created, header is retained to be persisted, and
	// Initialize returns false.
	Initialize(header *TreeIndexHeader) (bool, error)

	// ReadPage reads the node stored under the given page id.
	ReadPage(id int) (*Node, error)

	// WritePage durably writes a node, assigning a page id first if the
	// node does not have one yet.
	WritePage(n *Node) error

	// DeletePage removes the page with the given id.
	DeletePage(id int) error

	// Statistics returns the access counters of this page file.
	Statistics() PageFileStatistics

	// Close releases the page file, flushing any pending header state.
	Close() error
}
