package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/domain"
	"github.com/fjod/sweet-trails/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chapman = domain.ProductRef{ID: "chapman", Name: "Chapman", Price: 2500, Category: "drinks"}

type countingKV struct {
	storage.KV
	gets  atomic.Int32
	delay time.Duration
}

func (c *countingKV) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets.Add(1)
	time.Sleep(c.delay)
	return c.KV.Get(ctx, key)
}

// flakyKV fails the first failGets reads, then behaves.
type flakyKV struct {
	storage.KV
	mu       sync.Mutex
	failGets int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGets > 0
	if fail {
		f.failGets--
	}
	f.mu.Unlock()
	if fail {
		return nil, errors.New("connection reset")
	}
	return f.KV.Get(ctx, key)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, kv storage.KV, opts ...RegistryOption) *Registry {
	t.Helper()
	opts = append([]RegistryOption{WithCleanupInterval(time.Hour)}, opts...)
	r := NewRegistry(kv, opts...)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistry_RestoresFromSlot(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	payload, err := cart.Encode([]domain.LineItem{{ID: "chapman", Name: "Chapman", Price: 2500, Quantity: 3}})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, storage.CartKey("s1"), payload))

	r := newTestRegistry(t, kv)

	var total int64
	require.NoError(t, r.Do(ctx, "s1", func(s *cart.Store) { total = s.TotalPrice() }))
	assert.Equal(t, int64(7500), total)
}

func TestRegistry_PersistsUnderSessionKey(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	r := newTestRegistry(t, kv)

	require.NoError(t, r.Do(ctx, "s1", func(s *cart.Store) { s.AddItem(chapman) }))

	raw, err := kv.Get(ctx, "cart:s1")
	require.NoError(t, err)
	items, err := cart.Decode(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "chapman", items[0].ID)

	_, err = kv.Get(ctx, "cart:s2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, storage.NewMemoryKV())

	require.NoError(t, r.Do(ctx, "a", func(s *cart.Store) { s.AddItem(chapman) }))

	var empty bool
	require.NoError(t, r.Do(ctx, "b", func(s *cart.Store) { empty = s.IsEmpty() }))
	assert.True(t, empty)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_SerializesConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, storage.NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Do(ctx, "busy", func(s *cart.Store) { s.AddItem(chapman) }))
		}()
	}
	wg.Wait()

	var qty int
	require.NoError(t, r.Do(ctx, "busy", func(s *cart.Store) { qty = s.TotalItems() }))
	assert.Equal(t, 100, qty)
}

func TestRegistry_RestoresOncePerSession(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{KV: storage.NewMemoryKV(), delay: 20 * time.Millisecond}
	r := newTestRegistry(t, kv)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Do(ctx, "hot", func(*cart.Store) {}))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), kv.gets.Load())
}

func TestRegistry_EmptySessionID(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemoryKV())

	err := r.Do(context.Background(), "", func(*cart.Store) { t.Fatal("fn must not run") })

	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegistry_CancelledContext(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemoryKV())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, "s1", func(*cart.Store) { t.Fatal("fn must not run") })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_EvictsIdleCarts(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	kv := storage.NewMemoryKV()
	r := newTestRegistry(t, kv, WithIdleTTL(10*time.Minute))
	r.now = clock.Now

	require.NoError(t, r.Do(ctx, "idle", func(s *cart.Store) { s.AddItem(chapman) }))
	clock.Advance(6 * time.Minute)
	require.NoError(t, r.Do(ctx, "active", func(s *cart.Store) { s.AddItem(chapman) }))

	clock.Advance(5 * time.Minute)
	r.evictIdle()

	assert.Equal(t, 1, r.Len())

	// evicted cart comes back from its slot, closed
	var (
		open bool
		qty  int
	)
	require.NoError(t, r.Do(ctx, "idle", func(s *cart.Store) {
		open = s.IsOpen()
		qty = s.TotalItems()
	}))
	assert.False(t, open)
	assert.Equal(t, 1, qty)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ActiveCartsSurviveEviction(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newTestRegistry(t, storage.NewMemoryKV(), WithIdleTTL(time.Minute))
	r.now = clock.Now

	require.NoError(t, r.Do(ctx, "s1", func(s *cart.Store) { s.OpenCart() }))
	clock.Advance(2 * time.Minute)

	done := make(chan struct{})
	release := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Do(ctx, "s1", func(*cart.Store) { <-release })
	}()

	// wait until the cart is held by the goroutine
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		e := r.entries["s1"]
		if e.mu.TryLock() {
			e.mu.Unlock()
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	r.evictIdle()
	assert.Equal(t, 1, r.Len())

	close(release)
	<-done
}

func TestRegistry_CleanupLoopRuns(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, storage.NewMemoryKV(),
		WithIdleTTL(time.Millisecond),
		WithCleanupInterval(5*time.Millisecond),
	)

	require.NoError(t, r.Do(ctx, "s1", func(*cart.Store) {}))

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRegistry_CloseIsIdempotent(t *testing.T) {
	r := NewRegistry(storage.NewMemoryKV())
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}

func TestRegistry_LoadFailureKeepsSavedCart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryKV()
	saved, err := cart.Encode([]domain.LineItem{{ID: "puff-puff", Name: "Puff Puff", Price: 2500, Quantity: 4}})
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, storage.CartKey("s1"), saved))

	kv := &flakyKV{KV: mem, failGets: 1}
	r := newTestRegistry(t, kv)

	called := false
	err = r.Do(ctx, "s1", func(*cart.Store) { called = true })
	require.Error(t, err)
	assert.ErrorIs(t, err, cart.ErrLoadFailed)
	assert.False(t, called)
	assert.Zero(t, r.Len())

	raw, err := mem.Get(ctx, storage.CartKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, saved, raw)

	// backend is back: the saved lines are restored and new ones join them
	var total int
	require.NoError(t, r.Do(ctx, "s1", func(s *cart.Store) {
		s.AddItem(chapman)
		total = s.TotalItems()
	}))
	assert.Equal(t, 5, total)

	raw, err = mem.Get(ctx, storage.CartKey("s1"))
	require.NoError(t, err)
	items, err := cart.Decode(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "puff-puff", items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, "chapman", items[1].ID)
}
