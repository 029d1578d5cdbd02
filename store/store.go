// Package store manages a directory of named trees behind a single
// manifest, so CLI and server can address trees as <storeID>/<name>.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vs74/pagetree/kvtree"
	"github.com/vs74/pagetree/pagefile"
)

const manifestFileName = "manifest.json"

// Manifest tracks the store id plus a map of tree names to their
// subdirectories.
type Manifest struct {
	StoreID string            `json:"store_id"`
	Trees   map[string]string `json:"trees"`
}

// Store wraps the manifest plus the opened tree handles.
type Store struct {
	baseDir  string
	manifest Manifest
	trees    map[string]*kvtree.KVTree
	files    map[string]*pagefile.FileStore
	mu       sync.RWMutex
	log      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger handed to opened trees.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStoreID generates a fresh short store identifier.
func NewStoreID() string {
	id := uuid.New()
	return fmt.Sprintf("store_%s", strings.Split(id.String(), "-")[0])
}

func newStore(baseDir string, opts ...Option) *Store {
	s := &Store{
		baseDir: baseDir,
		trees:   make(map[string]*kvtree.KVTree),
		files:   make(map[string]*pagefile.FileStore),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStore creates an empty store at baseDir.
func NewStore(baseDir, storeID string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}
	s := newStore(baseDir, opts...)
	s.manifest = Manifest{StoreID: storeID, Trees: map[string]string{}}
	if err := s.saveManifest(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadStore opens an existing store at baseDir.
func LoadStore(baseDir string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, manifestFileName))
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	s := newStore(baseDir, opts...)
	if err := json.Unmarshal(data, &s.manifest); err != nil {
		return nil, errors.Wrap(err, "parse manifest")
	}
	if s.manifest.Trees == nil {
		s.manifest.Trees = map[string]string{}
	}
	return s, nil
}

func (s *Store) saveManifest() error {
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}
	if err := os.WriteFile(filepath.Join(s.baseDir, manifestFileName), data, 0644); err != nil {
		return errors.Wrap(err, "write manifest")
	}
	return nil
}

// ID returns the store identifier.
func (s *Store) ID() string {
	return s.manifest.StoreID
}

// CreateTree bootstraps a new named tree with the given page size.
func (s *Store) CreateTree(name string, pageSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.manifest.Trees[name]; exists {
		return errors.Errorf("tree %q already exists", name)
	}
	file := pagefile.NewFileStore(filepath.Join(s.baseDir, name), pagefile.WithPageSize(pageSize))
	kt, err := kvtree.Create(file, kvtree.WithLogger(s.log))
	if err != nil {
		return errors.Wrapf(err, "create tree %q", name)
	}
	s.trees[name] = kt
	s.files[name] = file
	s.manifest.Trees[name] = name
	return s.saveManifest()
}

// GetTree returns the named tree, opening it on first use.
func (s *Store) GetTree(name string) (*kvtree.KVTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kt, ok := s.trees[name]; ok {
		return kt, nil
	}
	dir, ok := s.manifest.Trees[name]
	if !ok {
		return nil, errors.Errorf("tree %q not found", name)
	}
	file := pagefile.NewFileStore(filepath.Join(s.baseDir, dir))
	kt, err := kvtree.Open(file, kvtree.WithLogger(s.log))
	if err != nil {
		return nil, errors.Wrapf(err, "open tree %q", name)
	}
	s.trees[name] = kt
	s.files[name] = file
	return kt, nil
}

// ListTrees returns the names of all trees in the store.
func (s *Store) ListTrees() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.manifest.Trees))
	for name := range s.manifest.Trees {
		names = append(names, name)
	}
	return names
}

// Close flushes every opened tree's page file and the manifest.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, file := range s.files {
		if err := file.Close(); err != nil {
			return errors.Wrapf(err, "close tree %q", name)
		}
	}
	s.trees = make(map[string]*kvtree.KVTree)
	s.files = make(map[string]*pagefile.FileStore)
	return s.saveManifest()
}

// ListStores returns the ids of all stores under root, identified by
// the presence of a manifest file.
func ListStores(root string) ([]string, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read store root")
	}
	var ids []string
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, de.Name(), manifestFileName)); err == nil {
			ids = append(ids, de.Name())
		}
	}
	return ids, nil
}
