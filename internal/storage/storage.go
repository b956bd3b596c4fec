package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// KV is a durable string-keyed store. Backends return ErrNotFound from Get
// when the key is absent; Delete of an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Slot binds a single key of a KV. The cart persists into exactly one slot.
type Slot struct {
	kv  KV
	key string
}

func NewSlot(kv KV, key string) *Slot {
	return &Slot{kv: kv, key: key}
}

func (s *Slot) Key() string {
	return s.key
}

func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	return s.kv.Get(ctx, s.key)
}

func (s *Slot) Save(ctx context.Context, payload []byte) error {
	return s.kv.Set(ctx, s.key, payload)
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

// CartKey is the slot key used for a browser session's cart.
func CartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
