package journal

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupJournalDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_Init(t *testing.T) {
	db := setupJournalDB(t)
	store := NewStore(db)
	defer store.Close()

	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='restore_journal'").Scan(&count)
	if count != 1 {
		t.Fatal("restore_journal table not created")
	}
}

func TestStore_RecordAsync_And_Close(t *testing.T) {
	db := setupJournalDB(t)
	store := NewStore(db)
	store.Init()

	for i := 0; i < 10; i++ {
		store.RecordAsync(&Entry{
			Event: EventRestore,
			X:     0,
			Y:     float64(i * 100),
			URL:   "https://example.com/a",
		})
	}

	// Close flushes.
	store.Close()

	var count int
	db.QueryRow("SELECT COUNT(*) FROM restore_journal WHERE event='restore'").Scan(&count)
	if count != 10 {
		t.Fatalf("journal count: got %d, want 10", count)
	}
}

func TestStore_BatchFlush(t *testing.T) {
	db := setupJournalDB(t)
	store := NewStore(db)
	store.Init()

	// Fill beyond batch threshold (64).
	for i := 0; i < 100; i++ {
		store.RecordAsync(&Entry{Event: EventStamp, X: 1, Y: 2})
	}

	time.Sleep(200 * time.Millisecond)
	store.Close()

	var count int
	db.QueryRow("SELECT COUNT(*) FROM restore_journal").Scan(&count)
	if count != 100 {
		t.Fatalf("total entries: got %d, want 100", count)
	}
}

func TestStore_EntryFields(t *testing.T) {
	db := setupJournalDB(t)
	store := NewStore(db)
	store.Init()

	store.RecordAsync(&Entry{
		Event:  EventTimedOut,
		X:      0,
		Y:      5000,
		Detail: "budget 300ms exhausted",
		URL:    "https://example.com/long",
	})
	store.Close()

	var detail string
	var y float64
	db.QueryRow("SELECT detail, y FROM restore_journal WHERE event='timed_out'").Scan(&detail, &y)
	if detail != "budget 300ms exhausted" {
		t.Fatalf("detail: got %q", detail)
	}
	if y != 5000 {
		t.Fatalf("y: got %v, want 5000", y)
	}

	var entryID string
	db.QueryRow("SELECT entry_id FROM restore_journal LIMIT 1").Scan(&entryID)
	if len(entryID) < 5 || entryID[:4] != "skj_" {
		t.Fatalf("entry_id prefix: got %q", entryID)
	}
}
