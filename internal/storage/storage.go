// Package storage maps domain values to sqlite rows and back.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"mathly/internal/storage/storagedb"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

// CorruptRecordError reports a stored row that cannot be mapped back to a
// domain value.
type CorruptRecordError struct {
	Table string
	ID    string
	Err   error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt %s record %s: %v", e.Table, e.ID, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

// Store is the sqlite-backed persistence adapter. Writes that change the
// solution history are announced to subscribers.
type Store struct {
	queries *storagedb.Queries

	mu          sync.Mutex
	subscribers map[chan struct{}]struct{}
}

// NewStore creates a Store on an already migrated database.
func NewStore(d *sql.DB) *Store {
	return &Store{
		queries:     storagedb.New(d),
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives a signal after every change to
// the solutions table. Signals coalesce: a slow reader sees at most one
// pending notification. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func clampLimit(limit int) int64 {
	if limit <= 0 {
		return -1 // sqlite: no limit
	}
	return int64(limit)
}
