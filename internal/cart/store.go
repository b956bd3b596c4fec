// Package cart holds the shopping cart state container: the selected line
// items, the drawer visibility flag, derived totals and the order summary.
//
// A Store is not safe for concurrent use. Every operation runs to completion
// on the caller's goroutine; callers sharing a Store across goroutines must
// serialize access (see session.Registry).
package cart

import (
	"log/slog"

	"github.com/fjod/sweet-trails/internal/domain"
)

const DefaultShopName = "Sweet Trails"

type Option func(*Store)

// WithShopName sets the business name used in the order summary.
func WithShopName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.shopName = name
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnChange registers a hook that receives a copy of the items after
// every operation that touches them. Visibility changes never fire it.
func WithOnChange(fn func(items []domain.LineItem)) Option {
	return func(s *Store) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

type Store struct {
	items    []domain.LineItem
	isOpen   bool
	shopName string
	logger   *slog.Logger
	hooks    []func([]domain.LineItem)
}

// New returns an empty, closed cart.
func New(opts ...Option) *Store {
	s := &Store{
		items:    []domain.LineItem{},
		shopName: DefaultShopName,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem increments the quantity of an existing line in place or appends a
// new line with quantity 1. Adding always reveals the cart.
func (s *Store) AddItem(p domain.ProductRef) {
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, domain.NewLineItem(p))
	}
	s.isOpen = true
	s.changed()
}

// RemoveItem deletes the line with the given id. Unknown ids are a no-op.
func (s *Store) RemoveItem(id string) {
	kept := make([]domain.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.changed()
}

// UpdateQuantity sets the quantity exactly. Zero or negative removes the line.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Quantity = quantity
	}
	s.changed()
}

// ClearCart empties the cart and closes it.
func (s *Store) ClearCart() {
	s.items = []domain.LineItem{}
	s.isOpen = false
	s.changed()
}

func (s *Store) ToggleCart() {
	s.isOpen = !s.isOpen
}

func (s *Store) OpenCart() {
	s.isOpen = true
}

func (s *Store) CloseCart() {
	s.isOpen = false
}

func (s *Store) IsOpen() bool {
	return s.isOpen
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Item(id string) (domain.LineItem, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return domain.LineItem{}, false
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price × quantity over all lines.
func (s *Store) TotalPrice() int64 {
	var total int64
	for _, item := range s.items {
		total += item.Subtotal()
	}
	return total
}

func (s *Store) ShopName() string {
	return s.shopName
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) changed() {
	if len(s.hooks) == 0 {
		return
	}
	items := s.Items()
	for _, hook := range s.hooks {
		hook(items)
	}
}

// Snapshot is a read-only view of the cart at one instant.
type Snapshot struct {
	Items      []domain.LineItem `json:"items"`
	IsOpen     bool              `json:"is_open"`
	TotalItems int               `json:"total_items"`
	TotalPrice int64             `json:"total_price"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Items:      s.Items(),
		IsOpen:     s.isOpen,
		TotalItems: s.TotalItems(),
		TotalPrice: s.TotalPrice(),
	}
}
