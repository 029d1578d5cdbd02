package pagefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vs74/pagetree/tree"
)

// DefaultPageSize is used when no page size option is given.
const DefaultPageSize = 4096

const (
	headerFileName = "header.json"
	pagesDirName   = "pages"
)

// storedHeader is the on-disk header record: the tree index header
// plus the page allocation cursor.
type storedHeader struct {
	tree.TreeIndexHeader
	NextPageID int `json:"next_page_id"`
}

// FileStore is a page file keeping each page in its own JSON file
// under <baseDir>/pages, with the header persisted as header.json at
// the directory root. Page ids are allocated sequentially starting at
// 1 and the allocation cursor is persisted alongside the header.
type FileStore struct {
	baseDir  string
	pageSize int
	next     int
	header   *tree.TreeIndexHeader
	stats    Stats
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithPageSize sets the page size for a freshly created store. On
// reattach the persisted header's page size wins.
func WithPageSize(size int) FileOption {
	return func(s *FileStore) { s.pageSize = size }
}

// NewFileStore creates a page file rooted at baseDir. Nothing touches
// disk until Initialize runs.
func NewFileStore(baseDir string, opts ...FileOption) *FileStore {
	s := &FileStore{
		baseDir:  baseDir,
		pageSize: DefaultPageSize,
		next:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize returns the page size in bytes.
func (s *FileStore) PageSize() int {
	return s.pageSize
}

// Initialize attaches the store to baseDir. An existing header.json
// marks a pre-existing tree: its values are copied into header and
// Initialize returns true. Otherwise the directory structure is
// created, the passed header is retained for persistence and
// Initialize returns false. The header file is written out together
// with the first page so that capacities derived after a fresh
// Initialize still end up on disk.
func (s *FileStore) Initialize(header *tree.TreeIndexHeader) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, headerFileName))
	if err == nil {
		var stored storedHeader
		if err := json.Unmarshal(data, &stored); err != nil {
			return false, errors.Wrap(err, "parse header file")
		}
		*header = stored.TreeIndexHeader
		hdr := stored.TreeIndexHeader
		s.header = &hdr
		s.pageSize = hdr.PageSize
		s.next = stored.NextPageID
		return true, nil
	}
	if !os.IsNotExist(err) {
		return false, errors.Wrap(err, "read header file")
	}

	if err := os.MkdirAll(filepath.Join(s.baseDir, pagesDirName), 0755); err != nil {
		return false, errors.Wrap(err, "create page directory")
	}
	s.header = header
	return false, nil
}

func (s *FileStore) writeHeader() error {
	if s.header == nil {
		return errors.New("page file not initialized")
	}
	stored := storedHeader{TreeIndexHeader: *s.header, NextPageID: s.next}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}
	if err := os.WriteFile(filepath.Join(s.baseDir, headerFileName), data, 0644); err != nil {
		return errors.Wrap(err, "write header file")
	}
	return nil
}

func (s *FileStore) pagePath(id int) string {
	return filepath.Join(s.baseDir, pagesDirName, fmt.Sprintf("page_%d.json", id))
}

// ReadPage reads the node stored under the given page id.
func (s *FileStore) ReadPage(id int) (*tree.Node, error) {
	s.stats.reads.Add(1)
	data, err := os.ReadFile(s.pagePath(id))
	if err != nil {
		return nil, errors.Wrapf(err, "read page %d", id)
	}
	node := new(tree.Node)
	if err := json.Unmarshal(data, node); err != nil {
		return nil, errors.Wrapf(err, "parse page %d", id)
	}
	return node, nil
}

// WritePage writes a node to its page file, allocating a page id first
// if the node has none. Allocation re-persists the header so the
// cursor survives a crash between writes.
func (s *FileStore) WritePage(n *tree.Node) error {
	if s.header == nil {
		return errors.New("page file not initialized")
	}
	if n.PageID() == 0 {
		n.SetPageID(s.next)
		s.next++
		if err := s.writeHeader(); err != nil {
			return err
		}
	}
	s.stats.writes.Add(1)
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "marshal page %d", n.PageID())
	}
	if err := os.WriteFile(s.pagePath(n.PageID()), data, 0644); err != nil {
		return errors.Wrapf(err, "write page %d", n.PageID())
	}
	return nil
}

// DeletePage removes the page file for the given id. Deleting a page
// that is already gone is not an error.
func (s *FileStore) DeletePage(id int) error {
	s.stats.writes.Add(1)
	if err := os.Remove(s.pagePath(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete page %d", id)
	}
	return nil
}

// Statistics returns the access counters of this store.
func (s *FileStore) Statistics() tree.PageFileStatistics {
	return &s.stats
}

// Close flushes the header. The page files themselves are written
// through on every WritePage.
func (s *FileStore) Close() error {
	if s.header == nil {
		return nil
	}
	return s.writeHeader()
}
