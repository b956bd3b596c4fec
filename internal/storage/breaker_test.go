package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	calls int
	err   error
}

func (f *failingKV) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, f.err
}

func (f *failingKV) Set(context.Context, string, []byte) error {
	f.calls++
	return f.err
}

func (f *failingKV) Delete(context.Context, string) error {
	f.calls++
	return f.err
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingKV{err: errors.New("connection refused")}
	b := NewBreaker(next, BreakerSettings{Name: "test", FailureThreshold: 3, OpenTimeout: time.Minute}, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := b.Set(ctx, "cart:a", []byte(`[]`))
		require.ErrorContains(t, err, "connection refused")
	}

	err := b.Set(ctx, "cart:a", []byte(`[]`))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, next.calls, "open breaker must not reach the backend")
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	next := &failingKV{err: ErrNotFound}
	b := NewBreaker(next, BreakerSettings{Name: "test", FailureThreshold: 2}, nil)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := b.Get(ctx, "cart:a")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 5, next.calls)
}

func TestBreaker_PassesThroughValues(t *testing.T) {
	kv := NewMemoryKV()
	b := NewBreaker(kv, BreakerSettings{Name: "memory"}, nil)

	ctx := context.Background()
	require.NoError(t, b.Set(ctx, "cart:a", []byte(`[1]`)))

	got, err := b.Get(ctx, "cart:a")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, b.Delete(ctx, "cart:a"))
	_, err = b.Get(ctx, "cart:a")
	assert.ErrorIs(t, err, ErrNotFound)
}
