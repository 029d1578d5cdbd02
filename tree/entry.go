package tree

import "encoding/json"

// Entry is one slot of a Node. It comes in two kinds: a leaf entry
// carrying terminal payload data, and a directory entry referencing a
// child node by page id. Directory entries may additionally carry a
// routing payload (separator keys, bounding regions and the like),
// which the core never interprets.
type Entry struct {
	leaf    bool
	pageID  int
	payload any
}

// NewLeafEntry creates a leaf entry holding the given payload.
// Leaf entries have no page id.
func NewLeafEntry(payload any) *Entry {
	return &Entry{leaf: true, payload: payload}
}

// NewDirectoryEntry creates a directory entry referencing the node
// stored at pageID. The routing payload is variant data and may be nil.
func NewDirectoryEntry(pageID int, routing any) *Entry {
	return &Entry{pageID: pageID, payload: routing}
}

// IsLeafEntry reports whether this is a leaf entry.
func (e *Entry) IsLeafEntry() bool {
	return e.leaf
}

// PageID returns the page id of the referenced child node.
// Leaf entries have no page id; asking for one is a programming error
// and panics with ErrLeafEntryPageID.
func (e *Entry) PageID() int {
	if e.leaf {
		panic(ErrLeafEntryPageID)
	}
	return e.pageID
}

// Payload returns the entry payload: domain data for leaf entries,
// routing data for directory entries.
func (e *Entry) Payload() any {
	return e.payload
}

// SetPayload replaces the entry payload. Variants use this to update
// routing data on directory entries after structural changes.
func (e *Entry) SetPayload(payload any) {
	e.payload = payload
}

type entryJSON struct {
	Leaf    bool `json:"leaf"`
	PageID  int  `json:"page_id,omitempty"`
	Payload any  `json:"payload,omitempty"`
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{Leaf: e.leaf, PageID: e.pageID, Payload: e.payload})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.leaf = raw.Leaf
	e.pageID = raw.PageID
	e.payload = raw.Payload
	return nil
}
