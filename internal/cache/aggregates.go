package cache

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies one memoized aggregate: the operation and its argument,
// empty for global aggregates.
type Key struct {
	Op  string
	Arg string
}

func (k Key) String() string {
	if k.Arg == "" {
		return k.Op
	}
	return k.Op + ":" + k.Arg
}

// Observer is told about cache traffic. Implementations must be safe for
// concurrent use.
type Observer interface {
	CacheHit(op string)
	CacheMiss(op string)
	CacheInvalidated()
	CacheEvicted(op string)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)     {}
func (nopObserver) CacheMiss(string)    {}
func (nopObserver) CacheInvalidated()   {}
func (nopObserver) CacheEvicted(string) {}

// Aggregates holds memoized aggregate results until the next mutation.
//
// Every InvalidateAll bumps a generation counter. A computation only stores
// its result when the generation it started under is still current, so a
// read racing a mutation never repopulates the cache with pre-mutation data.
type Aggregates struct {
	mu       sync.Mutex
	gen      uint64
	store    Cache[any]
	group    singleflight.Group
	observer Observer
}

// NewAggregates wraps store. A nil observer discards events. Stores that
// report size evictions have them forwarded to the observer.
func NewAggregates(store Cache[any], observer Observer) *Aggregates {
	if observer == nil {
		observer = nopObserver{}
	}
	if ev, ok := store.(interface{ OnEvict(func(string)) }); ok {
		ev.OnEvict(func(key string) {
			op, _, _ := strings.Cut(key, ":")
			observer.CacheEvicted(op)
		})
	}
	return &Aggregates{store: store, observer: observer}
}

// InvalidateAll drops every memoized result.
func (a *Aggregates) InvalidateAll() {
	a.mu.Lock()
	a.gen++
	a.store.Purge()
	a.mu.Unlock()
	a.observer.CacheInvalidated()
}

// Len reports how many results are memoized.
func (a *Aggregates) Len() int { return a.store.Size() }

func (a *Aggregates) generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

func (a *Aggregates) storeIfCurrent(gen uint64, key string, v any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen == gen {
		a.store.Set(key, v)
	}
}

// Memoize returns the memoized result for key, calling compute on a miss.
// Concurrent misses on the same key share a single compute call. Errors are
// returned to every waiter and never cached.
func Memoize[T any](a *Aggregates, key Key, compute func() (T, error)) (T, error) {
	k := key.String()
	if v, ok := a.store.Get(k); ok {
		if res, ok := v.(T); ok {
			a.observer.CacheHit(key.Op)
			return res, nil
		}
	}
	a.observer.CacheMiss(key.Op)

	gen := a.generation()
	v, err, _ := a.group.Do(strconv.FormatUint(gen, 10)+"|"+k, func() (any, error) {
		res, err := compute()
		if err != nil {
			return nil, err
		}
		a.storeIfCurrent(gen, k, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
