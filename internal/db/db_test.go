package db

import (
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	// Schema should be queryable after migration.
	for _, table := range []string{"sessions", "conversations", "context", "analysis_cache", "memory_embeddings"} {
		var n int
		if err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("querying %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s: expected empty table, got %d rows", table, n)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestConversationTypeConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	res, err := d.Exec(`INSERT INTO sessions (session_id) VALUES ('s1')`)
	if err != nil {
		t.Fatalf("inserting session: %v", err)
	}
	sid, _ := res.LastInsertId()

	_, err = d.Exec(`INSERT INTO conversations (session_id, type, content, timestamp) VALUES (?, 'bogus', 'x', datetime('now'))`, sid)
	if err == nil {
		t.Fatal("expected CHECK constraint violation for bogus message type")
	}
}
