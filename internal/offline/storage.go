package offline

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketOperations   = []byte("operations")
	bucketOperationIDs = []byte("operation_ids")
	bucketSnapshots    = []byte("snapshots")
	bucketSession      = []byte("session")

	keyToken = []byte("token")
)

// ErrNotFound is returned when an operation does not exist
var ErrNotFound = errors.New("operation not found")

// BoltStorage is the durable operation queue backed by BoltDB
type BoltStorage struct {
	db    *bolt.DB
	clock clockwork.Clock
}

// NewBoltStorage opens or creates the queue file at path. clock may be nil.
func NewBoltStorage(path string, clock clockwork.Clock) (*BoltStorage, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketOperations, bucketOperationIDs, bucketSnapshots, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStorage{db: db, clock: clock}, nil
}

// Enqueue stores a new operation. It returns once the operation is on disk.
func (s *BoltStorage) Enqueue(ctx context.Context, method, endpoint string, payload []byte) (*Operation, error) {
	body, text, err := NewBody(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}

	op := &Operation{
		ID:        uuid.New().String(),
		Method:    method,
		Endpoint:  endpoint,
		Body:      body,
		BodyText:  text,
		Timestamp: s.clock.Now().UTC(),
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		opsBucket := tx.Bucket(bucketOperations)

		seq, err := opsBucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		data, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("failed to marshal operation: %w", err)
		}

		key := makeKey(op.Timestamp, seq)
		if err := opsBucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to store operation: %w", err)
		}
		if err := tx.Bucket(bucketOperationIDs).Put([]byte(op.ID), key); err != nil {
			return fmt.Errorf("failed to index operation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return op, nil
}

// List returns all queued operations, oldest first
func (s *BoltStorage) List(ctx context.Context) ([]*Operation, error) {
	var ops []*Operation

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOperations).ForEach(func(k, v []byte) error {
			var op Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation %x: %w", k, err)
			}
			ops = append(ops, &op)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return ops, nil
}

// Remove deletes a single operation
func (s *BoltStorage) Remove(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		idsBucket := tx.Bucket(bucketOperationIDs)

		key := idsBucket.Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		// Copy the key, it is only valid within the transaction
		key = append([]byte(nil), key...)

		if err := tx.Bucket(bucketOperations).Delete(key); err != nil {
			return fmt.Errorf("failed to delete operation: %w", err)
		}
		return idsBucket.Delete([]byte(id))
	})
}

// Count returns the number of queued operations
func (s *BoltStorage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketOperations).Stats().KeyN
		return nil
	})
	return n, err
}

type snapshot struct {
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// SaveSnapshot caches v under key for offline reads
func (s *BoltStorage) SaveSnapshot(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	record, err := json.Marshal(snapshot{SavedAt: s.clock.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(key), record)
	})
}

// LoadSnapshot decodes the snapshot stored under key into out.
// It returns the time the snapshot was saved, or a zero time if there is none.
func (s *BoltStorage) LoadSnapshot(key string, out any) (time.Time, error) {
	var snap snapshot
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !found {
		return time.Time{}, nil
	}

	if err := json.Unmarshal(snap.Data, out); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap.SavedAt, nil
}

// SaveToken stores the session token. An empty token logs the session out.
func (s *BoltStorage) SaveToken(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if token == "" {
			return b.Delete(keyToken)
		}
		return b.Put(keyToken, []byte(token))
	})
}

// Token returns the stored session token or an empty string
func (s *BoltStorage) Token() (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		token = string(tx.Bucket(bucketSession).Get(keyToken))
		return nil
	})
	return token, err
}

// Close closes the storage
func (s *BoltStorage) Close() error {
	return s.db.Close()
}

// makeKey orders operations by timestamp, then by insertion
func makeKey(ts time.Time, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(ts.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}
