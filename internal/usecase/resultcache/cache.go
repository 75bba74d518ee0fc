// Package resultcache memoizes search responses per committed query and tracks
// the fetch lifecycle of each key.
package resultcache

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// subscriberBuffer is the channel capacity of an observer. A reader that falls
// behind skips intermediate states but always receives the latest one.
const subscriberBuffer = 4

// Options configures a Cache.
type Options struct {
	MaxEntries   int
	FetchTimeout time.Duration // 0 = fetches may hang forever
	Store        responseStore // optional second level
	CacheTotal   *prometheus.CounterVec
	Evictions    prometheus.Counter
	Logger       *zap.Logger
}

// Cache holds one entry per committed query.
// At most one fetch per key is current; a newer fetch cancels and supersedes the older one.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *slot]
	subs    map[string]map[chan Entry]struct{}

	fetcher   fetcher
	store     responseStore
	timeout   time.Duration
	total     *prometheus.CounterVec
	evictions prometheus.Counter
	logger    *zap.Logger
}

type slot struct {
	entry  Entry
	gen    uint64
	cancel context.CancelFunc
}

// New creates a Cache that fetches through f.
func New(f fetcher, opts Options) (*Cache, error) {
	if opts.MaxEntries <= 0 {
		return nil, errors.New("result cache: max entries must be positive")
	}
	c := &Cache{
		subs:      make(map[string]map[chan Entry]struct{}),
		fetcher:   f,
		store:     opts.Store,
		timeout:   opts.FetchTimeout,
		total:     opts.CacheTotal,
		evictions: opts.Evictions,
		logger:    opts.Logger,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	entries, err := lru.NewWithEvict[string, *slot](opts.MaxEntries, c.onEvict)
	if err != nil {
		return nil, err //nolint:wrapcheck // size validated above
	}
	c.entries = entries
	return c, nil
}

// Get returns the current snapshot for key without starting anything.
func (c *Cache) Get(key string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(key)
}

// Ensure starts a fetch only when key has no entry. A loading, succeeded or
// failed entry is returned as is: no duplicate fetch and no automatic retry.
func (c *Cache) Ensure(ctx context.Context, key string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.entries.Get(key); ok {
		c.inc("hit")
		return s.entry
	}
	c.inc("miss")

	s := &slot{}
	c.entries.Add(key, s)
	c.start(ctx, key, s, true)
	return s.entry
}

// Refetch discards whatever key holds and issues a new fetch, cancelling a fetch still in flight.
func (c *Cache) Refetch(ctx context.Context, key string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inc("refetch")

	s, ok := c.entries.Get(key)
	if !ok {
		s = &slot{}
		c.entries.Add(key, s)
	}
	c.start(ctx, key, s, false)
	return s.entry
}

// Subscribe delivers every later state of key to the returned channel.
// The returned function stops delivery and must be called once.
func (c *Cache) Subscribe(key string) (<-chan Entry, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, _ := c.subscribe(key)
	return ch, func() { c.unsubscribe(key, ch) }
}

// Wait blocks until key is not loading or ctx ends, and returns the latest snapshot.
// The error is ctx.Err() when ctx ended first.
func (c *Cache) Wait(ctx context.Context, key string) (Entry, error) {
	c.mu.Lock()
	ch, cur := c.subscribe(key)
	c.mu.Unlock()
	defer c.unsubscribe(key, ch)

	for cur.Status == Loading {
		select {
		case <-ctx.Done():
			return cur, ctx.Err()
		case cur = <-ch:
		}
	}
	return cur, nil
}

// Len returns the number of keys held in memory.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// start moves s to loading under a new generation. Caller holds c.mu.
func (c *Cache) start(parent context.Context, key string, s *slot, useStore bool) {
	if s.cancel != nil {
		s.cancel()
	}

	// The fetch outlives the request that triggered it.
	ctx := context.WithoutCancel(parent)
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	s.gen++
	s.cancel = cancel
	s.entry = Entry{Key: key, Status: Loading}
	c.notify(key, s.entry)

	go c.run(ctx, key, s, s.gen, useStore)
}

func (c *Cache) run(ctx context.Context, key string, s *slot, gen uint64, useStore bool) {
	if useStore && c.store != nil {
		if resp, ok := c.store.Load(ctx, key); ok {
			c.complete(key, s, gen, Entry{Key: key, Status: Succeeded, Response: resp})
			return
		}
	}

	resp, err := c.fetcher.Search(ctx, key)
	if err != nil {
		// A failed refetch must not leave an older success for other instances.
		if !useStore && c.store != nil && ctx.Err() == nil {
			c.store.Forget(ctx, key)
		}
		c.complete(key, s, gen, Entry{Key: key, Status: Failed, Err: err})
		return
	}
	if c.store != nil && ctx.Err() == nil {
		c.store.Save(ctx, key, resp)
	}
	c.complete(key, s, gen, Entry{Key: key, Status: Succeeded, Response: resp})
}

// complete publishes the outcome of fetch gen unless it was superseded or evicted.
func (c *Cache) complete(key string, s *slot, gen uint64, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.entries.Peek(key)
	if !ok || cur != s || s.gen != gen {
		c.logger.Debug("Discarding stale search result",
			zap.String("query", key), zap.Uint64("generation", gen))
		return
	}

	s.cancel()
	s.cancel = nil
	s.entry = e
	if e.Status == Failed {
		c.logger.Warn("Search failed", zap.String("query", key), zap.Error(e.Err))
	}
	c.notify(key, e)
}

// onEvict runs inside entries.Add, so c.mu is already held.
func (c *Cache) onEvict(key string, s *slot) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if c.evictions != nil {
		c.evictions.Inc()
	}
	c.notify(key, Entry{Key: key, Status: Idle})
}

// snapshot reads the entry for key. Caller holds c.mu.
func (c *Cache) snapshot(key string) Entry {
	if s, ok := c.entries.Peek(key); ok {
		return s.entry
	}
	return Entry{Key: key, Status: Idle}
}

// subscribe registers an observer and returns the state it starts from. Caller holds c.mu.
func (c *Cache) subscribe(key string) (chan Entry, Entry) {
	ch := make(chan Entry, subscriberBuffer)
	set, ok := c.subs[key]
	if !ok {
		set = make(map[chan Entry]struct{})
		c.subs[key] = set
	}
	set[ch] = struct{}{}
	return ch, c.snapshot(key)
}

func (c *Cache) unsubscribe(key string, ch chan Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.subs[key]
	delete(set, ch)
	if len(set) == 0 {
		delete(c.subs, key)
	}
}

// notify fans e out to observers of key. Caller holds c.mu.
func (c *Cache) notify(key string, e Entry) {
	for ch := range c.subs[key] {
		select {
		case ch <- e:
			continue
		default:
		}
		// Full: drop the oldest pending state so the newest always lands.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- e:
		default:
		}
	}
}

func (c *Cache) inc(result string) {
	if c.total != nil {
		c.total.WithLabelValues(result).Inc()
	}
}
