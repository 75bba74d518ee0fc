package crawler

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gocolly/colly/v2/storage"
	bolt "go.etcd.io/bbolt"
)

var (
	visitedBucket = []byte("visited")
	cookiesBucket = []byte("cookies")
)

// BoltStorage persists the collector's visited set and cookies so an
// interrupted crawl can resume without fetching the same pages again.
type BoltStorage struct {
	path string
	db   *bolt.DB
	mu   sync.Mutex
}

// NewBoltStorage returns a storage backed by the bbolt file at path.
// The file is opened by Init.
func NewBoltStorage(path string) *BoltStorage {
	return &BoltStorage{path: path}
}

// Init opens the database and creates the buckets. Calling it again is a no-op.
func (s *BoltStorage) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	db, err := bolt.Open(s.path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("open crawl state: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{visitedBucket, cookiesBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err //nolint:wrapcheck // wrapped below
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create buckets: %w", err)
	}
	s.db = db
	return nil
}

// Visited marks a request as done.
func (s *BoltStorage) Visited(requestID uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(visitedBucket).Put(requestKey(requestID), []byte{1})
	})
}

// IsVisited reports whether a request was already done.
func (s *BoltStorage) IsVisited(requestID uint64) (bool, error) {
	var visited bool
	err := s.db.View(func(tx *bolt.Tx) error {
		visited = tx.Bucket(visitedBucket).Get(requestKey(requestID)) != nil
		return nil
	})
	return visited, err //nolint:wrapcheck // bbolt errors are descriptive
}

// Cookies returns the stored cookies for u.
func (s *BoltStorage) Cookies(u *url.URL) string {
	var cookies string
	_ = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(cookiesBucket).Get([]byte(u.Host)); v != nil {
			cookies = string(v)
		}
		return nil
	})
	return cookies
}

// SetCookies stores the cookies for u.
func (s *BoltStorage) SetCookies(u *url.URL, cookies string) {
	_ = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cookiesBucket).Put([]byte(u.Host), []byte(cookies))
	})
}

// Clear forgets every visited request and cookie.
func (s *BoltStorage) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{visitedBucket, cookiesBucket} {
			if err := tx.DeleteBucket(b); err != nil {
				return err //nolint:wrapcheck // bbolt errors are descriptive
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err //nolint:wrapcheck // bbolt errors are descriptive
			}
		}
		return nil
	})
}

// VisitedCount returns the number of visited requests.
func (s *BoltStorage) VisitedCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(visitedBucket).Stats().KeyN
		return nil
	})
	return n, err //nolint:wrapcheck // bbolt errors are descriptive
}

// Close closes the database.
func (s *BoltStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err //nolint:wrapcheck // bbolt errors are descriptive
}

func requestKey(id uint64) []byte {
	return strconv.AppendUint(nil, id, 16)
}

var _ storage.Storage = (*BoltStorage)(nil)
