// Package cache persists fetch results on disk so repeated checks of the
// same URL within a TTL skip the browser entirely.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketPages = []byte("pages")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("cache: store closed")

// entry wraps a cached payload with its write time.
type entry struct {
	T    time.Time       `json:"t"`
	Data json.RawMessage `json:"data"`
}

// Store is a disk-backed result cache using BoltDB, keyed by URL.
type Store struct {
	db *bolt.DB

	mu     sync.Mutex
	closed bool
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores a payload for url, stamped now. The payload must be valid
// JSON; it is embedded verbatim in the on-disk envelope.
func (s *Store) Put(url string, data []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	wrapped, err := json.Marshal(entry{T: time.Now().UTC(), Data: data})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPages)
		if b == nil {
			return errors.New("cache bucket not found")
		}
		return b.Put([]byte(url), wrapped)
	})
}

// Get returns the payload for url if it is younger than ttl. A ttl <= 0
// means entries never expire. Corrupt entries read as misses.
func (s *Store) Get(url string, ttl time.Duration) ([]byte, bool) {
	if s.isClosed() {
		return nil, false
	}
	var data []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPages)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(url))
		if raw == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil
		}
		if ttl > 0 && time.Since(e.T) > ttl {
			return nil
		}
		data = e.Data
		return nil
	})
	return data, data != nil
}

// Delete removes the entry for url.
func (s *Store) Delete(url string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPages)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(url))
	})
}

// Len counts stored entries, expired ones included.
func (s *Store) Len() (int, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketPages); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Close releases the database file. Concurrent readers that slipped past
// the closed check fail inside bolt and read as misses.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}
