// Package respcache keeps succeeded search responses in a shared key-value store
// so that several web instances, or a restarted one, can serve a repeated query
// without asking the engine again.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/db"
	"github.com/kailas-cloud/docsearch/internal/domain/search"
)

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store reads and writes search responses keyed by committed query.
type Store struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a response store.
// cacheTotal is a counter vec with label "result" ("store_hit"/"store_miss"), passed explicitly.
func New(
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Store {
	return &Store{
		store:      s,
		prefix:     keyPrefix + "resp:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Load returns the stored response for q. Store failures are logged and reported as a miss.
func (s *Store) Load(ctx context.Context, q string) (search.ClientResponse, bool) {
	key := s.key(q)

	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		s.inc("store_miss")
		return search.ClientResponse{}, false
	}

	var resp search.ClientResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn("Failed to parse cached response", zap.String("key", key), zap.Error(err))
		s.inc("store_miss")
		return search.ClientResponse{}, false
	}

	s.inc("store_hit")
	return resp, true
}

// Save stores resp for q with the configured TTL. Failures are logged only.
func (s *Store) Save(ctx context.Context, q string, resp search.ClientResponse) {
	key := s.key(q)

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to encode response", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.SetWithTTL(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}

// Forget drops the stored response for q. Failures are logged only.
func (s *Store) Forget(ctx context.Context, q string) {
	key := s.key(q)
	if err := s.store.Del(ctx, key); err != nil {
		s.logger.Warn("Failed to drop cached response", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) inc(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (s *Store) key(q string) string {
	h := sha256.Sum256([]byte(q))
	return s.prefix + hex.EncodeToString(h[:])
}
