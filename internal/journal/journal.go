// Package journal persists restoration decisions to a SQLite table
// asynchronously. It is the opt-in forensic channel behind debug logging:
// every stamp, restore and timeout lands as a row that can be queried after
// the fact.
package journal

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/scrollkeeper/idgen"
)

// Schema for the restore_journal table. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS restore_journal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id TEXT NOT NULL,
	event TEXT NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	detail TEXT,
	url TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_restore_journal_ts ON restore_journal(timestamp);
CREATE INDEX IF NOT EXISTS idx_restore_journal_event ON restore_journal(event);
`

// Event names recorded by the keeper.
const (
	EventStamp     = "stamp"
	EventRestore   = "restore"
	EventSatisfied = "satisfied"
	EventTimedOut  = "timed_out"
	EventOrigin    = "origin"
	EventPopped    = "popped"
	EventUnload    = "unload"
)

// Entry is one recorded decision.
type Entry struct {
	Event     string
	X, Y      float64
	Detail    string
	URL       string
	Timestamp int64
}

// Store buffers entries on a channel and flushes them in batches, so a slow
// or failing journal database never blocks the keeper's event handlers.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
	ch    chan *Entry
	done  chan struct{}
	once  sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets a custom generator for entry IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates a journal store backed by the given database connection.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		newID: idgen.Prefixed("skj_", idgen.Default),
		ch:    make(chan *Entry, 1024),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	go s.flushLoop()
	return s
}

// Init creates the restore_journal table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// RecordAsync queues an entry for async persistence. Non-blocking; drops
// silently if the buffer is full to avoid backpressure on the keeper.
func (s *Store) RecordAsync(e *Entry) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	select {
	case s.ch <- e:
	default:
	}
}

// Close drains the buffer and stops the flush goroutine.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("journal: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO restore_journal (entry_id, event, x, y, detail, url, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("journal: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(s.newID(), e.Event, e.X, e.Y, e.Detail, e.URL, e.Timestamp); err != nil {
			slog.Error("journal: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("journal: commit", "error", err)
	}
}
