package tree

// IndexTreePath is an immutable, singly-linked chain of path
// components from the root down to a node. Descending conses a new
// component onto the chain; ancestors are shared between paths, never
// copied, so variants can branch cheaply while walking the tree.
type IndexTreePath struct {
	entry  *Entry
	parent *IndexTreePath
}

// NewIndexTreePath returns the path consisting of a single component.
func NewIndexTreePath(entry *Entry) *IndexTreePath {
	return &IndexTreePath{entry: entry}
}

// Descend extends the path by one component and returns the extended
// path. The receiver is unchanged and becomes the parent of the
// returned path.
func (p *IndexTreePath) Descend(entry *Entry) *IndexTreePath {
	return &IndexTreePath{entry: entry, parent: p}
}

// Entry returns the entry of the last path component.
func (p *IndexTreePath) Entry() *Entry {
	return p.entry
}

// Parent returns the path up to and including the parent component,
// or nil if this path is at the root.
func (p *IndexTreePath) Parent() *IndexTreePath {
	return p.parent
}

// Depth returns the number of components in the path. A root path has
// depth 1.
func (p *IndexTreePath) Depth() int {
	d := 0
	for q := p; q != nil; q = q.parent {
		d++
	}
	return d
}
