package offline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// SharedStorage is a queue file that several processes use in turn.
// bbolt locks the file exclusively while it is open, so every call opens
// the file, does its work and closes it again. A long-running sync daemon
// therefore never blocks CLI commands that enqueue from another shell.
type SharedStorage struct {
	path  string
	clock clockwork.Clock
}

// NewSharedStorage checks that the queue file at path can be opened and
// returns a storage that opens it per call. clock may be nil.
func NewSharedStorage(path string, clock clockwork.Clock) (*SharedStorage, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &SharedStorage{path: path, clock: clock}
	if err := s.do(func(*BoltStorage) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SharedStorage) do(fn func(st *BoltStorage) error) error {
	st, err := NewBoltStorage(s.path, s.clock)
	if err != nil {
		return err
	}

	err = fn(st)
	if cerr := st.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	return err
}

// Enqueue stores a new operation
func (s *SharedStorage) Enqueue(ctx context.Context, method, endpoint string, payload []byte) (*Operation, error) {
	var op *Operation
	err := s.do(func(st *BoltStorage) error {
		var err error
		op, err = st.Enqueue(ctx, method, endpoint, payload)
		return err
	})
	return op, err
}

// List returns all queued operations, oldest first
func (s *SharedStorage) List(ctx context.Context) ([]*Operation, error) {
	var ops []*Operation
	err := s.do(func(st *BoltStorage) error {
		var err error
		ops, err = st.List(ctx)
		return err
	})
	return ops, err
}

// Remove deletes a single operation
func (s *SharedStorage) Remove(ctx context.Context, id string) error {
	return s.do(func(st *BoltStorage) error {
		return st.Remove(ctx, id)
	})
}

// Count returns the number of queued operations
func (s *SharedStorage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.do(func(st *BoltStorage) error {
		var err error
		n, err = st.Count(ctx)
		return err
	})
	return n, err
}

// SaveSnapshot caches v under key for offline reads
func (s *SharedStorage) SaveSnapshot(key string, v any) error {
	return s.do(func(st *BoltStorage) error {
		return st.SaveSnapshot(key, v)
	})
}

// LoadSnapshot decodes the snapshot stored under key into out
func (s *SharedStorage) LoadSnapshot(key string, out any) (time.Time, error) {
	var savedAt time.Time
	err := s.do(func(st *BoltStorage) error {
		var err error
		savedAt, err = st.LoadSnapshot(key, out)
		return err
	})
	return savedAt, err
}

// SaveToken stores the session token. An empty token logs the session out.
func (s *SharedStorage) SaveToken(token string) error {
	return s.do(func(st *BoltStorage) error {
		return st.SaveToken(token)
	})
}

// Token returns the stored session token or an empty string
func (s *SharedStorage) Token() (string, error) {
	var token string
	err := s.do(func(st *BoltStorage) error {
		var err error
		token, err = st.Token()
		return err
	})
	return token, err
}
