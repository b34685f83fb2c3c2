package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/metrics"
)

const (
	DefaultStaleTime      = 5 * time.Minute
	DefaultGCTime         = 10 * time.Minute
	DefaultRetries        = 3
	DefaultRetryBaseDelay = time.Second
	DefaultRetryMaxDelay  = 30 * time.Second
)

type Options struct {
	StaleTime      time.Duration
	GCTime         time.Duration
	Retries        int // attempts after the first; negative disables retry
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Retryable decides which failures are retried. Defaults to
	// apiclient.IsRetryable (network, timeout, 5xx).
	Retryable func(error) bool
	Logger    *zap.Logger
	Now       func() time.Time
}

func (o *Options) setDefaults() {
	if o.StaleTime <= 0 {
		o.StaleTime = DefaultStaleTime
	}
	if o.GCTime <= 0 {
		o.GCTime = DefaultGCTime
	}
	if o.Retries == 0 {
		o.Retries = DefaultRetries
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if o.RetryMaxDelay <= 0 {
		o.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if o.Retryable == nil {
		o.Retryable = apiclient.IsRetryable
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Cache holds query results shared by every view of the process.
type Cache struct {
	opts Options
	log  *zap.Logger

	mu        sync.Mutex
	entries   map[string]*entry
	lastPrune time.Time
}

type entry struct {
	key       Key
	value     any
	hasValue  bool
	updatedAt time.Time
	lastUsed  time.Time
	lastErr   error

	// gen increases on every invalidation; a fetch only lands when the
	// generation it started under is still current.
	gen         uint64
	invalidated bool
	call        *call
}

type call struct {
	gen   uint64
	done  chan struct{}
	value any
	err   error
}

// Snapshot describes an entry without reading through it.
type Snapshot struct {
	UpdatedAt   time.Time
	Stale       bool
	Invalidated bool
	Fetching    bool
	HasValue    bool
	Err         error
}

func New(opts Options) *Cache {
	opts.setDefaults()
	return &Cache{
		opts:    opts,
		log:     opts.Logger.Named("query"),
		entries: make(map[string]*entry),
	}
}

// Fetch returns the cached value for key or runs fn to obtain it.
//
// A fresh entry is returned as is. A stale entry is returned immediately
// while one background refetch runs. With no usable entry the caller waits
// for the shared fetch, or for ctx, whichever ends first. The fetch itself
// is never cancelled by a caller and still populates the cache.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query: entry %s holds %T", key, v)
	}
	return t, nil
}

// Prefetch warms key unless it already holds fresh data.
func Prefetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) error {
	_, err := Fetch(ctx, c, key, fn)
	return err
}

// Peek returns whatever is cached for key, fresh or not, without fetching.
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasValue {
		return zero, false
	}
	t, ok := e.value.(T)
	return t, ok
}

func (c *Cache) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	now := c.opts.Now()
	c.pruneLocked(now)

	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: key}
		c.entries[ks] = e
	}
	e.lastUsed = now

	if e.hasValue && !e.invalidated {
		if now.Sub(e.updatedAt) < c.opts.StaleTime {
			v := e.value
			c.mu.Unlock()
			c.count(key, "hit")
			return v, nil
		}
		if e.call == nil {
			c.startLocked(ctx, e, fn)
		}
		v := e.value
		c.mu.Unlock()
		c.count(key, "stale")
		return v, nil
	}

	cl := e.call
	if cl == nil {
		cl = c.startLocked(ctx, e, fn)
		c.count(key, "miss")
	} else {
		c.count(key, "dedup")
	}
	c.mu.Unlock()

	select {
	case <-cl.done:
		return cl.value, cl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) startLocked(ctx context.Context, e *entry, fn func(context.Context) (any, error)) *call {
	cl := &call{gen: e.gen, done: make(chan struct{})}
	e.call = cl
	go c.run(context.WithoutCancel(ctx), e.key, cl, fn)
	return cl
}

func (c *Cache) run(ctx context.Context, key Key, cl *call, fn func(context.Context) (any, error)) {
	v, err := c.retry(ctx, key, fn)

	c.mu.Lock()
	if e, ok := c.entries[key.String()]; ok && e.call == cl {
		e.call = nil
		if e.gen == cl.gen {
			if err == nil {
				e.value = v
				e.hasValue = true
				e.updatedAt = c.opts.Now()
				e.invalidated = false
				e.lastErr = nil
			} else {
				e.lastErr = err
			}
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.count(key, "error")
		c.log.Warn("query failed", zap.String("key", key.String()), zap.Error(err))
	}
	cl.value, cl.err = v, err
	close(cl.done)
}

func (c *Cache) retry(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= c.opts.Retries || !c.opts.Retryable(err) {
			return nil, err
		}
		d := c.Backoff(attempt)
		c.count(key, "retry")
		c.log.Debug("query retry",
			zap.String("key", key.String()),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", d),
			zap.Error(err),
		)
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, err
		}
	}
}

// Backoff is the delay before retry number attempt+1: the base delay
// doubled per attempt, capped at the configured maximum.
func (c *Cache) Backoff(attempt int) time.Duration {
	d := c.opts.RetryBaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= c.opts.RetryMaxDelay {
			return c.opts.RetryMaxDelay
		}
	}
	if d > c.opts.RetryMaxDelay {
		return c.opts.RetryMaxDelay
	}
	return d
}

// Invalidate marks every entry of resource as outdated. Their next read
// waits for a fresh fetch; fetches already running for them are discarded.
func (c *Cache) Invalidate(resource string) {
	c.mu.Lock()
	n := 0
	for _, e := range c.entries {
		if e.key.Resource != resource {
			continue
		}
		c.invalidateLocked(e)
		n++
	}
	c.mu.Unlock()
	if n > 0 {
		metrics.QueryCacheTotal.WithLabelValues(resource, "invalidate").Add(float64(n))
	}
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	for _, e := range c.entries {
		c.invalidateLocked(e)
	}
	c.mu.Unlock()
}

func (c *Cache) invalidateLocked(e *entry) {
	e.gen++
	e.invalidated = true
	e.call = nil
}

// Clear drops every entry, e.g. when the signed-in user changes.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

func (c *Cache) Inspect(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		UpdatedAt:   e.updatedAt,
		Stale:       !e.hasValue || c.opts.Now().Sub(e.updatedAt) >= c.opts.StaleTime,
		Invalidated: e.invalidated,
		Fetching:    e.call != nil,
		HasValue:    e.hasValue,
		Err:         e.lastErr,
	}, true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prune removes entries unused for longer than the GC window.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPrune = time.Time{}
	return c.pruneLocked(c.opts.Now())
}

func (c *Cache) pruneLocked(now time.Time) int {
	if !c.lastPrune.IsZero() && now.Sub(c.lastPrune) < c.opts.GCTime/2 {
		return 0
	}
	c.lastPrune = now
	n := 0
	for k, e := range c.entries {
		if e.call == nil && now.Sub(e.lastUsed) >= c.opts.GCTime {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache) count(key Key, outcome string) {
	metrics.QueryCacheTotal.WithLabelValues(key.Resource, outcome).Inc()
}
