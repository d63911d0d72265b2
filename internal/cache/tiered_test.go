package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dialboard/backend/internal/storage"
	"github.com/rs/zerolog"
)

// memStore is an in-memory Store for tests
type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	wipes   int
	removes int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Read(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Write(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.removes++
	return nil
}

func (s *memStore) List(ctx context.Context) ([]storage.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]storage.Entry, 0, len(s.data))
	for k, v := range s.data {
		entries = append(entries, storage.Entry{Key: k, Value: v})
	}
	return entries, nil
}

func (s *memStore) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
	s.wipes++
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func testCache(store storage.Store) *TieredCache {
	return New(Options{
		MaxEntries: 10,
		Version:    "v1",
		Store:      store,
		Logger:     zerolog.Nop(),
	})
}

func TestGetSet(t *testing.T) {
	c := testCache(nil)

	c.Set("key", "value", time.Minute, PriorityMedium)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "value" {
		t.Errorf("expected value, got %v", got)
	}

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := testCache(nil)

	c.Set("key", "value", 100*time.Millisecond, PriorityHigh)

	if !c.Has("key") {
		t.Fatal("expected fresh entry")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("expected entry to expire after TTL")
	}
	if c.Has("key") {
		t.Error("expected Has to report expired entry as absent")
	}
}

func TestDelete(t *testing.T) {
	c := testCache(nil)

	c.Set("key", "value", time.Minute, PriorityHigh)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("expected deleted key to miss")
	}
}

func TestEvictionDropsLowPriorityFirst(t *testing.T) {
	c := testCache(nil)

	// Fill to capacity: 5 low, 5 high
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("low-%d", i), i, time.Minute, PriorityLow)
	}
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("high-%d", i), i, time.Minute, PriorityHigh)
	}

	// Next insert triggers eviction down to 80% of capacity
	c.Set("trigger", "value", time.Minute, PriorityHigh)

	if c.Len() > 9 {
		t.Errorf("expected eviction to free room, have %d entries", c.Len())
	}

	for i := 0; i < 5; i++ {
		if _, ok := c.Get(fmt.Sprintf("high-%d", i)); !ok {
			t.Errorf("high-priority entry high-%d was evicted", i)
		}
	}
	if _, ok := c.Get("trigger"); !ok {
		t.Error("expected newly inserted entry to be present")
	}

	lowSurvivors := 0
	for i := 0; i < 5; i++ {
		if _, ok := c.Get(fmt.Sprintf("low-%d", i)); ok {
			lowSurvivors++
		}
	}
	if lowSurvivors >= 5 {
		t.Error("expected some low-priority entries to be evicted")
	}
}

func TestGetOrSetSingleFlight(t *testing.T) {
	c := testCache(nil)

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return "computed", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrSet(context.Background(), "key", time.Minute, fetch)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected fetch to run once, ran %d times", got)
	}
	for i, v := range results {
		if v != "computed" {
			t.Errorf("caller %d got %v", i, v)
		}
	}
}

func TestGetOrSetErrorNotCached(t *testing.T) {
	c := testCache(nil)

	fetchErr := errors.New("upstream down")
	_, err := c.GetOrSet(context.Background(), "key", time.Minute, func(ctx context.Context) (any, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	if _, ok := c.Get("key"); ok {
		t.Error("failed fetch must not be cached")
	}

	// A later fetch can succeed
	v, err := c.GetOrSet(context.Background(), "key", time.Minute, func(ctx context.Context) (any, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "recovered" {
		t.Errorf("expected recovered, got %v", v)
	}
}

func TestPersistAndRehydrate(t *testing.T) {
	store := newMemStore()

	c := testCache(store)
	c.Set("key", map[string]int{"answered": 42}, time.Minute, PriorityHigh)

	// Persist runs off the Set path
	time.Sleep(50 * time.Millisecond)
	if store.len() != 1 {
		t.Fatalf("expected 1 persisted entry, got %d", store.len())
	}

	// A new cache over the same store picks the entry up
	c2 := testCache(store)
	if err := c2.Rehydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := c2.Get("key")
	if !ok {
		t.Fatal("expected rehydrated entry")
	}

	var decoded map[string]int
	if err := Decode(data, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded["answered"] != 42 {
		t.Errorf("expected 42, got %d", decoded["answered"])
	}
}

func TestRehydrateVersionMismatchWipes(t *testing.T) {
	store := newMemStore()

	c := testCache(store)
	c.Set("key", "value", time.Minute, PriorityHigh)
	time.Sleep(50 * time.Millisecond)

	c2 := New(Options{
		MaxEntries: 10,
		Version:    "v2",
		Store:      store,
		Logger:     zerolog.Nop(),
	})
	if err := c2.Rehydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.wipes != 1 {
		t.Errorf("expected durable store to be wiped, wipes=%d", store.wipes)
	}
	if c2.Len() != 0 {
		t.Errorf("expected empty cache after version mismatch, got %d entries", c2.Len())
	}
}

func TestRehydrateDropsCorruptEntries(t *testing.T) {
	store := newMemStore()
	store.Write(context.Background(), "bad", "{not json")

	good, _ := json.Marshal(persistedEntry{
		Version:   "v1",
		Data:      json.RawMessage(`"value"`),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
		Priority:  PriorityHigh,
	})
	store.Write(context.Background(), "good", string(good))

	c := testCache(store)
	if err := c.Rehydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := c.Get("good"); !ok {
		t.Error("expected intact entry to load")
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("expected corrupt entry to be dropped")
	}
}

func TestRehydrateSkipsExpired(t *testing.T) {
	store := newMemStore()

	expired, _ := json.Marshal(persistedEntry{
		Version:   "v1",
		Data:      json.RawMessage(`"value"`),
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
		Priority:  PriorityHigh,
	})
	store.Write(context.Background(), "old", string(expired))

	c := testCache(store)
	if err := c.Rehydrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Len() != 0 {
		t.Errorf("expected expired entry to be skipped, got %d entries", c.Len())
	}
}

func TestPersistCeiling(t *testing.T) {
	store := newMemStore()

	c := New(Options{
		MaxEntries:     10,
		PersistCeiling: 64,
		Version:        "v1",
		Store:          store,
		Logger:         zerolog.Nop(),
	})

	c.Set("big", map[string]string{"payload": string(make([]byte, 1024))}, time.Minute, PriorityHigh)
	time.Sleep(50 * time.Millisecond)

	if store.len() != 0 {
		t.Errorf("expected oversized entry to stay memory-only, store has %d", store.len())
	}
	if _, ok := c.Get("big"); !ok {
		t.Error("expected oversized entry to stay in memory")
	}
}
