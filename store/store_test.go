package store_test

import (
	"path/filepath"
	"testing"

	"github.com/vs74/pagetree/store"
)

func TestStoreLifecycle(t *testing.T) {
	root := t.TempDir()
	storeID := store.NewStoreID()
	base := filepath.Join(root, storeID)

	s, err := store.NewStore(base, storeID)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if s.ID() != storeID {
		t.Fatalf("Expected store id %s, got %s", storeID, s.ID())
	}

	if err := s.CreateTree("users", 512); err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	if err := s.CreateTree("users", 512); err == nil {
		t.Fatal("Creating a tree twice must fail")
	}
	if err := s.CreateTree("orders", 1024); err != nil {
		t.Fatalf("Failed to create second tree: %v", err)
	}

	kt, err := s.GetTree("users")
	if err != nil {
		t.Fatalf("Failed to get tree: %v", err)
	}
	if err := kt.Insert("alice", "1"); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	// Reload from disk and check everything survived.
	loaded, err := store.LoadStore(base)
	if err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}
	if loaded.ID() != storeID {
		t.Fatalf("Expected loaded store id %s, got %s", storeID, loaded.ID())
	}
	names := loaded.ListTrees()
	if len(names) != 2 {
		t.Fatalf("Expected 2 trees, got %v", names)
	}

	kt, err = loaded.GetTree("users")
	if err != nil {
		t.Fatalf("Failed to get tree after reload: %v", err)
	}
	value, found, err := kt.Find("alice")
	if err != nil || !found || value != "1" {
		t.Fatalf("Expected alice=1 after reload, got %q found=%v err=%v", value, found, err)
	}
	if kt.PageSize() != 512 {
		t.Fatalf("Expected page size 512 after reload, got %d", kt.PageSize())
	}

	if _, err := loaded.GetTree("missing"); err == nil {
		t.Fatal("Expected error for an unknown tree")
	}
	if err := loaded.Close(); err != nil {
		t.Fatalf("Failed to close loaded store: %v", err)
	}
}

func TestLoadStoreMissing(t *testing.T) {
	if _, err := store.LoadStore(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Expected error loading a store that does not exist")
	}
}

func TestListStores(t *testing.T) {
	root := t.TempDir()

	ids, err := store.ListStores(root)
	if err != nil || len(ids) != 0 {
		t.Fatalf("Expected no stores in empty root, got %v err=%v", ids, err)
	}

	for i := 0; i < 3; i++ {
		id := store.NewStoreID()
		s, err := store.NewStore(filepath.Join(root, id), id)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Failed to close store: %v", err)
		}
	}

	ids, err = store.ListStores(root)
	if err != nil {
		t.Fatalf("Failed to list stores: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("Expected 3 stores, got %v", ids)
	}

	// A missing root is treated as empty, not as an error.
	ids, err = store.ListStores(filepath.Join(root, "does-not-exist"))
	if err != nil || ids != nil {
		t.Fatalf("Expected empty result for missing root, got %v err=%v", ids, err)
	}
}

func TestNewStoreIDFormat(t *testing.T) {
	a, b := store.NewStoreID(), store.NewStoreID()
	if a == b {
		t.Fatalf("Expected distinct store ids, got %s twice", a)
	}
	if len(a) != len("store_")+8 {
		t.Fatalf("Unexpected store id format: %s", a)
	}
}
