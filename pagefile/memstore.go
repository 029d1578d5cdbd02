package pagefile

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vs74/pagetree/tree"
)

// MemStore is an in-memory page file used in tests and throwaway
// trees. Pages are kept in serialized form so that reading a page
// yields a fresh node image, the same way the file-backed store
// behaves.
type MemStore struct {
	pageSize int
	pages    map[int][]byte
	header   *tree.TreeIndexHeader
	next     int
	stats    Stats
}

// NewMemStore creates an in-memory page file with the given page size.
func NewMemStore(pageSize int) *MemStore {
	return &MemStore{
		pageSize: pageSize,
		pages:    make(map[int][]byte),
		next:     1,
	}
}

// PageSize returns the page size in bytes.
func (s *MemStore) PageSize() int {
	return s.pageSize
}

// Initialize reports whether this store was initialized before. A
// second Initialize on the same store behaves like a reattach and
// copies the retained header values out.
func (s *MemStore) Initialize(header *tree.TreeIndexHeader) (bool, error) {
	if s.header != nil {
		*header = *s.header
		return true, nil
	}
	s.header = header
	return false, nil
}

// ReadPage returns a fresh node image for the given page id.
func (s *MemStore) ReadPage(id int) (*tree.Node, error) {
	s.stats.reads.Add(1)
	data, ok := s.pages[id]
	if !ok {
		return nil, errors.Errorf("page %d not found", id)
	}
	node := new(tree.Node)
	if err := json.Unmarshal(data, node); err != nil {
		return nil, errors.Wrapf(err, "parse page %d", id)
	}
	return node, nil
}

// WritePage stores the serialized node, allocating a page id first if
// the node has none.
func (s *MemStore) WritePage(n *tree.Node) error {
	if s.header == nil {
		return errors.New("page file not initialized")
	}
	if n.PageID() == 0 {
		n.SetPageID(s.next)
		s.next++
	}
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Wrapf(err, "marshal page %d", n.PageID())
	}
	s.stats.writes.Add(1)
	s.pages[n.PageID()] = data
	return nil
}

// DeletePage removes the page with the given id.
func (s *MemStore) DeletePage(id int) error {
	s.stats.writes.Add(1)
	delete(s.pages, id)
	return nil
}

// Statistics returns the access counters of this store.
func (s *MemStore) Statistics() tree.PageFileStatistics {
	return &s.stats
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}
