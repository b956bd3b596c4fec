package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/storage"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultIdleTTL is how long an untouched cart stays in memory.
	DefaultIdleTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often idle carts are evicted.
	DefaultCleanupInterval = 30 * time.Second

	restoreTimeout = 2 * time.Second
)

type RegistryOption func(*Registry)

func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

func WithCleanupInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.cleanupInterval = d
		}
	}
}

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCartOptions are applied to every cart the registry restores.
func WithCartOptions(opts ...cart.Option) RegistryOption {
	return func(r *Registry) {
		r.cartOpts = append(r.cartOpts, opts...)
	}
}

type entry struct {
	mu       sync.Mutex
	store    *cart.Store
	lastSeen time.Time
	evicted  bool
}

// Registry owns one cart per browser session. A cart is restored from its
// slot on first use, every call for a session is serialized, and carts idle
// for longer than the TTL are dropped from memory. A dropped cart is
// restored again on next use, which closes its drawer like a page reload.
type Registry struct {
	kv              storage.KV
	cartOpts        []cart.Option
	idleTTL         time.Duration
	cleanupInterval time.Duration
	logger          *slog.Logger
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	sfg     singleflight.Group // one restore per session at a time

	stopCleanup chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

func NewRegistry(kv storage.KV, opts ...RegistryOption) *Registry {
	r := &Registry{
		kv:              kv,
		idleTTL:         DefaultIdleTTL,
		cleanupInterval: DefaultCleanupInterval,
		logger:          slog.Default(),
		now:             time.Now,
		entries:         make(map[string]*entry),
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cartOpts = append([]cart.Option{cart.WithLogger(r.logger)}, r.cartOpts...)

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// Do runs fn with exclusive access to the session's cart. If the saved cart
// cannot be read, fn is not called and the error wraps cart.ErrLoadFailed.
func (r *Registry) Do(ctx context.Context, sessionID string, fn func(*cart.Store)) error {
	if sessionID == "" {
		return ErrNoSession
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e, err := r.entry(ctx, sessionID)
		if err != nil {
			return err
		}

		e.mu.Lock()
		if e.evicted {
			// lost a race with cleanup; restore again
			e.mu.Unlock()
			continue
		}
		fn(e.store)
		e.lastSeen = r.now()
		e.mu.Unlock()
		return nil
	}
}

func (r *Registry) entry(ctx context.Context, sessionID string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	r.mu.Unlock()
	if ok {
		return e, nil
	}

	v, err, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		r.mu.Lock()
		if e, ok := r.entries[sessionID]; ok {
			r.mu.Unlock()
			return e, nil
		}
		r.mu.Unlock()

		// a cancelled request must not leave an empty cart in place of a saved one
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()

		slot := storage.NewSlot(r.kv, storage.CartKey(sessionID))
		store, err := cart.Restore(loadCtx, slot, r.cartOpts...)
		if err != nil {
			// not cached; the next call tries the backend again
			r.logger.Warn("cart restore failed", "session_id", sessionID, "error", err)
			return nil, err
		}
		e := &entry{store: store, lastSeen: r.now()}

		r.mu.Lock()
		r.entries[sessionID] = e
		r.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry), nil
}

// Len reports how many carts are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

// evictIdle drops carts not touched within the idle TTL. Carts in use are
// skipped until the next pass.
func (r *Registry) evictIdle() {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			e.evicted = true
			delete(r.entries, id)
			evicted++
		}
		e.mu.Unlock()
	}
	if evicted > 0 {
		r.logger.Info("evicted idle carts", "count", evicted, "remaining", len(r.entries))
	}
}

// Close stops the background cleanup and waits for it to finish.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() { close(r.stopCleanup) })
	r.wg.Wait()
	return nil
}
