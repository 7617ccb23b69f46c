package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/exprdash/internal/dataset"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createDemoStore creates a store holding the demo dataset.
func createDemoStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	if _, err := s.ImportDataset(context.Background(), dataset.Demo()); err != nil {
		t.Fatalf("ImportDataset() failed: %v", err)
	}
	return s
}
