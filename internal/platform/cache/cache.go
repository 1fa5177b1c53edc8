// Package cache is a keyed request cache with staleness windows,
// invalidation and optimistic mutation rollback. It is the only shared
// mutable state in the core; everything UI-facing reads and writes
// through Query, Mutate and Invalidate.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Key is a semantic key tuple, e.g. {"userCars", userID}.
type Key []string

const keySep = ":"

func (k Key) String() string { return strings.Join(k, keySep) }

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

type flight struct {
	cancel context.CancelFunc
}

// Tx is the handle mutation hooks use to read and write cache state.
// It is only valid for the duration of the hook call; Mutate holds the
// key lock while hooks run, so writes through a Tx cannot interleave
// with another mutation's rollback on the same key.
type Tx struct {
	c *Cache
}

// Hooks drive an optimistic mutation. OnMutate may write a provisional
// value and returns whatever context is needed to roll it back; OnError
// receives that context when the remote call fails; OnSettled always runs
// last, on success and on failure alike.
type Hooks struct {
	OnMutate  func(tx *Tx) (rollback any)
	OnError   func(tx *Tx, err error, rollback any)
	OnSettled func(tx *Tx)
}

type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flight
	keyLocks map[string]*sync.Mutex
}

func New() *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		inflight: make(map[string]*flight),
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Query returns the cached value when it is present, not invalidated and
// younger than staleTime; otherwise it runs fetcher, stores the result and
// timestamps it. Issuing a new Query for a key with a fetch already in
// flight cancels the superseded fetch in favor of the latest caller.
func (c *Cache) Query(ctx context.Context, key Key, fetcher func(ctx context.Context) (any, error), staleTime time.Duration) (any, error) {
	k := key.String()

	c.mu.Lock()
	if e := c.entries[k]; e != nil && !e.stale && staleTime > 0 && time.Since(e.fetchedAt) < staleTime {
		v := e.value
		c.mu.Unlock()
		queryHits.Inc()
		return v, nil
	}
	if fl := c.inflight[k]; fl != nil {
		fl.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	fl := &flight{cancel: cancel}
	c.inflight[k] = fl
	c.mu.Unlock()
	queryMisses.Inc()

	value, err := fetcher(fetchCtx)

	c.mu.Lock()
	if c.inflight[k] == fl {
		delete(c.inflight, k)
	}
	// A fetch whose own context died while the caller's is still alive was
	// superseded by a newer Query; its result must not clobber the cache.
	superseded := fetchCtx.Err() != nil && ctx.Err() == nil
	if err == nil && !superseded {
		c.entries[k] = &entry{value: value, fetchedAt: time.Now()}
	}
	c.mu.Unlock()
	cancel()

	return value, err
}

// Mutate runs a remote mutation with optimistic cache semantics under the
// key's lock, serializing rollback per key. The mutation itself runs on a
// context that survives caller cancellation: a mutation is never cancelled
// mid-flight, rollback and invalidation still apply afterwards.
func (c *Cache) Mutate(ctx context.Context, key Key, fetcher func(ctx context.Context) (any, error), hooks Hooks) (any, error) {
	lock := c.lockFor(key.String())
	lock.Lock()
	defer lock.Unlock()

	tx := &Tx{c: c}
	var rollback any
	if hooks.OnMutate != nil {
		rollback = hooks.OnMutate(tx)
	}

	value, err := fetcher(context.WithoutCancel(ctx))

	if err != nil {
		mutationRollbacks.Inc()
		if hooks.OnError != nil {
			hooks.OnError(tx, err, rollback)
		}
	}
	if hooks.OnSettled != nil {
		hooks.OnSettled(tx)
	}
	return value, err
}

// Invalidate marks the key stale so the next Query re-fetches regardless
// of its staleness window.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[key.String()]; e != nil {
		e.stale = true
	}
}

// InvalidatePrefix marks the key and every key nested under it stale.
func (c *Cache) InvalidatePrefix(key Key) {
	prefix := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if k == prefix || strings.HasPrefix(k, prefix+keySep) {
			e.stale = true
		}
	}
}

func (c *Cache) lockFor(k string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.keyLocks[k]
	if !ok {
		lock = &sync.Mutex{}
		c.keyLocks[k] = lock
	}
	return lock
}

// Get reads the current value for a key without staleness checks.
func (tx *Tx) Get(key Key) (any, bool) {
	tx.c.mu.Lock()
	defer tx.c.mu.Unlock()
	e := tx.c.entries[key.String()]
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Set writes a value, replacing any previous one and resetting staleness.
func (tx *Tx) Set(key Key, value any) {
	tx.c.mu.Lock()
	defer tx.c.mu.Unlock()
	tx.c.entries[key.String()] = &entry{value: value, fetchedAt: time.Now()}
}

func (tx *Tx) Invalidate(key Key) { tx.c.Invalidate(key) }

func (tx *Tx) InvalidatePrefix(key Key) { tx.c.InvalidatePrefix(key) }
