package cart

import (
	"fmt"
	"strings"

	"github.com/fjod/sweet-trails/internal/money"
)

// Greeting is the message sent when the cart is empty.
func Greeting(shopName string) string {
	return fmt.Sprintf("Hello %s! I'd like to place an order.", shopName)
}

// OrderSummary renders the cart as the text handed to the messaging channel.
func (s *Store) OrderSummary() string {
	if len(s.items) == 0 {
		return Greeting(s.shopName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s! 🍽️\n\nI'd like to order:\n\n", s.shopName)
	for i, item := range s.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "• %s x%d - %s", item.Name, item.Quantity, money.Format(item.Subtotal()))
	}
	fmt.Fprintf(&b, "\n\n💰 Total: %s\n\nPlease confirm availability and delivery details. Thank you!",
		money.Format(s.TotalPrice()))

	return b.String()
}
