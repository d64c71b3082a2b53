package store

import (
	"path/filepath"
	"testing"
)

// createTestStore opens a journal in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEvent(id, session string, seq int64) Event {
	return Event{
		ID:      id,
		Session: session,
		Seq:     seq,
		Kind:    "element-created",
		Payload: `{"element":{"id":"s1","type":"sound","x":0,"y":0}}`,
	}
}
