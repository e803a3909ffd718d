package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new temp-dir store for testing.
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

// createPostsTable adds an application table used by read/write tests.
func createPostsTable(t *testing.T, s *Store) {
	t.Helper()
	err := s.Exec(context.Background(), `
		CREATE TABLE posts (
			id         INTEGER PRIMARY KEY,
			user_id    INTEGER,
			title      TEXT NOT NULL,
			deleted_at TEXT
		)
	`)
	if err != nil {
		t.Fatalf("create posts: %v", err)
	}
}
