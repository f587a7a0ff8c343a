package visits

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"catalog-analytics-api/internal/cache"
)

// fakeStore emulates the durable uniqueness constraint on (date, session).
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]bool
	inserts int
	fail    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]bool)}
}

func (s *fakeStore) CreateVisitIfAbsent(ctx context.Context, visitDate, sessionID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, fmt.Errorf("store down")
	}
	s.inserts++
	key := visitDate + "|" + sessionID
	if s.rows[key] {
		return false, nil
	}
	s.rows[key] = true
	return true, nil
}

func (s *fakeStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func TestRecord_Idempotent(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, cache.NewInMemoryCache())
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	if !r.Record(context.Background(), "sess1", "tabX", now) {
		t.Fatal("First call: expected recorded")
	}
	if r.Record(context.Background(), "sess1", "tabX", now) {
		t.Fatal("Second call: expected already-recorded")
	}
	if store.rowCount() != 1 {
		t.Errorf("Expected 1 durable row, got %d", store.rowCount())
	}
	// Cache hit on the second call: only one durable attempt
	if store.inserts != 1 {
		t.Errorf("Expected 1 durable insert attempt, got %d", store.inserts)
	}
}

func TestRecord_SecondTabSameSessionSameDay(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, cache.NewInMemoryCache())
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	if !r.Record(context.Background(), "sess1", "tabX", now) {
		t.Fatal("First tab: expected recorded")
	}
	// Different tab misses the cache but hits the durable constraint
	if r.Record(context.Background(), "sess1", "tabY", now) {
		t.Fatal("Second tab: expected already-recorded")
	}
	if store.rowCount() != 1 {
		t.Errorf("Expected 1 durable row, got %d", store.rowCount())
	}
}

func TestRecord_NewDayRecordsAgain(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, cache.NewInMemoryCache())

	day1 := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC)

	if !r.Record(context.Background(), "sess1", "tabX", day1) {
		t.Fatal("Day 1: expected recorded")
	}
	if !r.Record(context.Background(), "sess1", "tabX", day2) {
		t.Fatal("Day 2: expected recorded")
	}
	if store.rowCount() != 2 {
		t.Errorf("Expected 2 durable rows, got %d", store.rowCount())
	}
}

func TestRecord_ConcurrentTabsOneDurableRow(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, cache.NewInMemoryCache())
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	const n = 32
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(tab int) {
			defer wg.Done()
			results <- r.Record(context.Background(), "sess1", fmt.Sprintf("tab%d", tab), now)
		}(i)
	}
	wg.Wait()
	close(results)

	recorded := 0
	for ok := range results {
		if ok {
			recorded++
		}
	}
	if recorded != 1 {
		t.Errorf("Expected exactly 1 recorded result, got %d", recorded)
	}
	if store.rowCount() != 1 {
		t.Errorf("Expected exactly 1 durable row, got %d", store.rowCount())
	}
}

func TestRecord_StoreFailureSwallowed(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	r := NewRecorder(store, cache.NewInMemoryCache())
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	if r.Record(context.Background(), "sess1", "tabX", now) {
		t.Fatal("Expected not-recorded when the store is down")
	}

	// Failure must not poison the cache: a later attempt reaches the store
	store.fail = false
	if !r.Record(context.Background(), "sess1", "tabX", now) {
		t.Fatal("Expected recorded after the store recovers")
	}
}
