// Package catalogue is the read-only product catalogue the cart adds from.
package catalogue

import (
	"context"
	"errors"

	"github.com/fjod/sweet-trails/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Badge       string `json:"badge,omitempty"`
	IsSpicy     bool   `json:"is_spicy,omitempty"`
	IsPremium   bool   `json:"is_premium,omitempty"`
	Servings    string `json:"servings,omitempty"`
}

// ProductRef is the slice of a product the cart copies into a line item.
func (p Product) ProductRef() domain.ProductRef {
	return domain.ProductRef{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Category: p.Category,
	}
}

type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

type Provider interface {
	Product(ctx context.Context, id string) (Product, error)
	Products(ctx context.Context) ([]Product, error)
	ByCategory(ctx context.Context, category string) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
}
