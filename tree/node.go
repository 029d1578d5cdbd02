package tree

import "encoding/json"

// Node is the in-memory image of one stored page: an ordered sequence
// of entries, all of the same kind. A node's identity is its page id;
// two nodes with the same id are the same durable object at different
// points in time. Page id 0 means "not yet assigned"; the page file
// assigns an id on first write.
type Node struct {
	id      int
	leaf    bool
	entries []*Entry
}

// NewLeafNode creates an empty leaf node pre-sized for capacity entries.
func NewLeafNode(capacity int) *Node {
	return &Node{leaf: true, entries: make([]*Entry, 0, capacity)}
}

// NewDirectoryNode creates an empty directory node pre-sized for
// capacity entries.
func NewDirectoryNode(capacity int) *Node {
	return &Node{entries: make([]*Entry, 0, capacity)}
}

// PageID returns the page id of this node, 0 if not yet assigned.
func (n *Node) PageID() int {
	return n.id
}

// SetPageID assigns the page id. Called by page file implementations
// when a fresh node is first written.
func (n *Node) SetPageID(id int) {
	n.id = id
}

// IsLeaf reports whether this node holds leaf entries.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// NumEntries returns the number of entries currently held.
func (n *Node) NumEntries() int {
	return len(n.entries)
}

// Entry returns the entry at index i.
func (n *Node) Entry(i int) *Entry {
	return n.entries[i]
}

// Entries returns the backing entry slice. Callers must not grow it.
func (n *Node) Entries() []*Entry {
	return n.entries
}

// AddEntry appends an entry.
func (n *Node) AddEntry(e *Entry) {
	n.entries = append(n.entries, e)
}

// InsertEntryAt inserts an entry at index i, shifting later entries.
func (n *Node) InsertEntryAt(i int, e *Entry) {
	n.entries = append(n.entries, nil)
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = e
}

// DeleteEntryAt removes and returns the entry at index i.
func (n *Node) DeleteEntryAt(i int) *Entry {
	e := n.entries[i]
	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	return e
}

// SetEntries replaces the entry sequence.
func (n *Node) SetEntries(entries []*Entry) {
	n.entries = entries
}

type nodeJSON struct {
	ID      int      `json:"id"`
	Leaf    bool     `json:"leaf"`
	Entries []*Entry `json:"entries"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{ID: n.id, Leaf: n.leaf, Entries: n.entries})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.id = raw.ID
	n.leaf = raw.Leaf
	n.entries = raw.Entries
	if n.entries == nil {
		n.entries = []*Entry{}
	}
	return nil
}
