package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/catalogue"
	"github.com/fjod/sweet-trails/internal/domain"
	"github.com/fjod/sweet-trails/internal/handoff"
	"github.com/fjod/sweet-trails/internal/money"
	"github.com/fjod/sweet-trails/internal/session"
	"github.com/go-chi/chi/v5"
)

// CartRunner gives exclusive access to one session's cart.
type CartRunner interface {
	Do(ctx context.Context, sessionID string, fn func(*cart.Store)) error
}

type CartHandler struct {
	carts          CartRunner
	catalogue      catalogue.Provider
	notifier       handoff.Notifier
	whatsAppNumber string
	timeout        time.Duration
}

func NewCartHandler(carts CartRunner, provider catalogue.Provider, notifier handoff.Notifier, whatsAppNumber string, timeout time.Duration) *CartHandler {
	if notifier == nil {
		notifier = handoff.NopNotifier{}
	}
	return &CartHandler{
		carts:          carts,
		catalogue:      provider,
		notifier:       notifier,
		whatsAppNumber: whatsAppNumber,
		timeout:        timeout,
	}
}

// MaxLineQuantity bounds a single line, whether reached by adding
// repeatedly or by setting the quantity.
const MaxLineQuantity = 999

var ErrQuantityLimit = errors.New("line quantity limit reached")

type AddItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required,max=100"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

type LineItemResponse struct {
	domain.LineItem
	Subtotal          int64  `json:"subtotal"`
	SubtotalFormatted string `json:"subtotal_formatted"`
}

type CartResponse struct {
	Items               []LineItemResponse `json:"items"`
	IsOpen              bool               `json:"is_open"`
	TotalItems          int                `json:"total_items"`
	TotalPrice          int64              `json:"total_price"`
	TotalPriceFormatted string             `json:"total_price_formatted"`
}

type CheckoutResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func toCartResponse(s *cart.Store) CartResponse {
	snap := s.Snapshot()
	items := make([]LineItemResponse, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = LineItemResponse{
			LineItem:          item,
			Subtotal:          item.Subtotal(),
			SubtotalFormatted: money.Format(item.Subtotal()),
		}
	}
	return CartResponse{
		Items:               items,
		IsOpen:              snap.IsOpen,
		TotalItems:          snap.TotalItems,
		TotalPrice:          snap.TotalPrice,
		TotalPriceFormatted: money.Format(snap.TotalPrice),
	}
}

// apply runs fn on the caller's cart and responds with the resulting view.
func (h *CartHandler) apply(w http.ResponseWriter, r *http.Request, status int, fn func(*cart.Store)) {
	h.applyChecked(w, r, status, func(s *cart.Store) error {
		fn(s)
		return nil
	})
}

// applyChecked is apply for operations that can refuse; a refused
// operation leaves the cart untouched and its error is rendered.
func (h *CartHandler) applyChecked(w http.ResponseWriter, r *http.Request, status int, fn func(*cart.Store) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, err := session.FromContext(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var (
		resp  CartResponse
		opErr error
	)
	err = h.carts.Do(ctx, sessionID, func(s *cart.Store) {
		if opErr = fn(s); opErr == nil {
			resp = toCartResponse(s)
		}
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, status, resp)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, func(*cart.Store) {})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalogue.Product(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.applyChecked(w, r, http.StatusCreated, func(s *cart.Store) error {
		if line, ok := s.Item(product.ID); ok && line.Quantity >= MaxLineQuantity {
			return ErrQuantityLimit
		}
		s.AddItem(product.ProductRef())
		return nil
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.apply(w, r, http.StatusOK, func(s *cart.Store) {
		s.UpdateQuantity(productID, *req.Quantity)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	h.apply(w, r, http.StatusOK, func(s *cart.Store) {
		s.RemoveItem(productID)
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, (*cart.Store).ClearCart)
}

func (h *CartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, (*cart.Store).ToggleCart)
}

func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, (*cart.Store).OpenCart)
}

func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, http.StatusOK, (*cart.Store).CloseCart)
}

// Checkout renders the order message and the chat link that carries it.
// A non-empty cart also emits a handoff notification.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, err := session.FromContext(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var (
		message string
		snap    cart.Snapshot
	)
	err = h.carts.Do(ctx, sessionID, func(s *cart.Store) {
		message = s.OrderSummary()
		snap = s.Snapshot()
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	if len(snap.Items) > 0 {
		h.notifier.Notify(r.Context(), handoff.Notification{
			SessionID:  sessionID,
			Items:      snap.Items,
			TotalItems: snap.TotalItems,
			TotalPrice: snap.TotalPrice,
			Message:    message,
			CreatedAt:  time.Now().UTC(),
		})
	}

	respondJSON(w, http.StatusOK, CheckoutResponse{
		Message: message,
		URL:     handoff.WhatsAppLink(h.whatsAppNumber, message),
	})
}
