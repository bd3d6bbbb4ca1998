package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type countingObserver struct {
	mu            sync.Mutex
	hits, misses  map[string]int
	evictions     map[string]int
	invalidations int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{hits: map[string]int{}, misses: map[string]int{}, evictions: map[string]int{}}
}

func (o *countingObserver) CacheHit(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits[op]++
}

func (o *countingObserver) CacheMiss(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses[op]++
}

func (o *countingObserver) CacheInvalidated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalidations++
}

func (o *countingObserver) CacheEvicted(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evictions[op]++
}

func TestMemoizeReportsEvictions(t *testing.T) {
	obs := newCountingObserver()
	a := NewAggregates(NewLRUCache[any](1, 0), obs)
	one := func() (int, error) { return 1, nil }

	if _, err := Memoize(a, Key{Op: "column_sum", Arg: "maio"}, one); err != nil {
		t.Fatal(err)
	}
	if _, err := Memoize(a, Key{Op: "monthly_totals"}, one); err != nil {
		t.Fatal(err)
	}
	if obs.evictions["column_sum"] != 1 || a.Len() != 1 {
		t.Fatalf("evictions=%v len=%d", obs.evictions, a.Len())
	}
}

func TestMemoizeHitMissInvalidate(t *testing.T) {
	obs := newCountingObserver()
	a := NewAggregates(NewLRUCache[any](16, 0), obs)
	calls := 0
	compute := func() (int, error) {
		calls++
		return calls * 10, nil
	}
	key := Key{Op: "sum", Arg: "janeiro"}

	for i := 0; i < 3; i++ {
		v, err := Memoize(a, key, compute)
		if err != nil || v != 10 {
			t.Fatalf("Memoize = %d, %v", v, err)
		}
	}
	if calls != 1 || obs.hits["sum"] != 2 || obs.misses["sum"] != 1 {
		t.Fatalf("calls=%d hits=%d misses=%d", calls, obs.hits["sum"], obs.misses["sum"])
	}

	a.InvalidateAll()
	if a.Len() != 0 || obs.invalidations != 1 {
		t.Fatalf("len=%d invalidations=%d", a.Len(), obs.invalidations)
	}
	if v, _ := Memoize(a, key, compute); v != 20 {
		t.Fatalf("expected a fresh value after invalidation, got %d", v)
	}
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	a := NewAggregates(NewLRUCache[any](16, 0), nil)
	boom := errors.New("boom")
	if _, err := Memoize(a, Key{Op: "avg"}, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if a.Len() != 0 {
		t.Fatal("failed computation was cached")
	}
	if v, err := Memoize(a, Key{Op: "avg"}, func() (int, error) { return 5, nil }); err != nil || v != 5 {
		t.Fatalf("Memoize = %d, %v", v, err)
	}
}

func TestMemoizeDropsResultComputedAcrossInvalidation(t *testing.T) {
	a := NewAggregates(NewLRUCache[any](16, 0), nil)
	key := Key{Op: "top", Arg: "10"}

	// A mutation lands while the computation is in flight.
	v, err := Memoize(a, key, func() (string, error) {
		a.InvalidateAll()
		return "stale", nil
	})
	if err != nil || v != "stale" {
		t.Fatalf("Memoize = %q, %v", v, err)
	}
	if a.Len() != 0 {
		t.Fatal("result computed before the invalidation was stored")
	}

	v, _ = Memoize(a, key, func() (string, error) { return "fresh", nil })
	if v != "fresh" {
		t.Fatalf("expected fresh, got %q", v)
	}
}

func TestMemoizeConcurrentMissesShareCompute(t *testing.T) {
	a := NewAggregates(NewLRUCache[any](16, 0), nil)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Memoize(a, Key{Op: "monthly"}, func() (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
		}(i)
	}
	close(release)
	wg.Wait()

	for i, r := range results {
		if r != 7 {
			t.Fatalf("result[%d] = %d", i, r)
		}
	}
	if n := calls.Load(); n < 1 || n > int32(len(results)) {
		t.Fatalf("unexpected compute count %d", n)
	}
}

func TestKeyString(t *testing.T) {
	if (Key{Op: "monthly"}).String() != "monthly" || (Key{Op: "sum", Arg: "total"}).String() != "sum:total" {
		t.Fatal("unexpected key rendering")
	}
}
