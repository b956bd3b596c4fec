package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/sweet-trails/internal/domain"
	"github.com/fjod/sweet-trails/internal/storage"
)

// Slot is the durable storage port: one key holding the serialized items.
// Load returns storage.ErrNotFound when nothing was saved yet.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

const saveTimeout = time.Second

// ErrLoadFailed wraps a storage read failure during Restore.
var ErrLoadFailed = errors.New("load cart failed")

// Open creates a cart reconciled with whatever the slot holds and wires
// persistence so that every items mutation is written back to the slot.
// The restored cart is always closed. Restore failures are logged and
// yield an empty cart; they are never returned.
func Open(ctx context.Context, slot Slot, opts ...Option) *Store {
	s := New(opts...)
	items, err := restore(ctx, slot, s.logger)
	if err != nil {
		s.logger.Warn("failed to load cart, starting empty", "error", err)
		items = []domain.LineItem{}
	}
	attach(s, slot, items)
	return s
}

// Restore is Open for callers that can retry: a storage read failure is
// returned wrapped in ErrLoadFailed and no cart is built, so nothing gets
// written over the saved items. A missing or unparseable payload still
// yields an empty cart.
func Restore(ctx context.Context, slot Slot, opts ...Option) (*Store, error) {
	s := New(opts...)
	items, err := restore(ctx, slot, s.logger)
	if err != nil {
		return nil, err
	}
	attach(s, slot, items)
	return s, nil
}

func attach(s *Store, slot Slot, items []domain.LineItem) {
	s.items = items
	s.isOpen = false
	s.hooks = append([]func([]domain.LineItem){persistTo(slot, s.logger)}, s.hooks...)
}

func restore(ctx context.Context, slot Slot, logger *slog.Logger) ([]domain.LineItem, error) {
	payload, err := slot.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.LineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	items, err := Decode(payload)
	if err != nil {
		logger.Warn("failed to parse saved cart, starting empty", "error", err)
		return []domain.LineItem{}, nil
	}
	return items, nil
}

func persistTo(slot Slot, logger *slog.Logger) func([]domain.LineItem) {
	return func(items []domain.LineItem) {
		payload, err := Encode(items)
		if err != nil {
			logger.Error("failed to encode cart", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := slot.Save(ctx, payload); err != nil {
			logger.Warn("failed to save cart", "error", err)
		}
	}
}

// Encode serializes items as a JSON array; an empty cart is "[]".
func Encode(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return payload, nil
}

// Decode parses a saved item list. Lines without an id or with a
// non-positive quantity are dropped, as are repeated ids after the first.
func Decode(payload []byte) ([]domain.LineItem, error) {
	var raw []domain.LineItem
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	items := make([]domain.LineItem, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}
