package features

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/domain"
	"github.com/fjod/sweet-trails/internal/storage"
)

type cartTestContext struct {
	menu  map[string]domain.ProductRef
	kv    *storage.MemoryKV
	slot  *storage.Slot
	store *cart.Store
}

func (c *cartTestContext) reset() {
	c.menu = map[string]domain.ProductRef{}
	c.kv = storage.NewMemoryKV()
	c.slot = storage.NewSlot(c.kv, storage.CartKey("feature"))
	c.store = nil
}

func (c *cartTestContext) theMenuContains(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		price, err := strconv.ParseInt(row.Cells[2].Value, 10, 64)
		if err != nil {
			return fmt.Errorf("bad price %q: %w", row.Cells[2].Value, err)
		}
		c.menu[row.Cells[0].Value] = domain.ProductRef{
			ID:       row.Cells[0].Value,
			Name:     row.Cells[1].Value,
			Price:    price,
			Category: row.Cells[3].Value,
		}
	}
	return nil
}

func (c *cartTestContext) anEmptyCart() error {
	c.store = cart.Open(context.Background(), c.slot)
	return nil
}

func (c *cartTestContext) theSavedCartContains(payload string) error {
	return c.kv.Set(context.Background(), c.slot.Key(), []byte(payload))
}

func (c *cartTestContext) iAddToTheCart(id string) error {
	p, ok := c.menu[id]
	if !ok {
		return fmt.Errorf("%q is not on the menu", id)
	}
	c.store.AddItem(p)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfTo(id string, qty int) error {
	c.store.UpdateQuantity(id, qty)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.store.ClearCart()
	return nil
}

func (c *cartTestContext) iReloadThePage() error {
	c.store = cart.Open(context.Background(), c.slot)
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Items()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theLineHasQuantity(id string, qty int) error {
	item, ok := c.store.Item(id)
	if !ok {
		return fmt.Errorf("no line %q", id)
	}
	if item.Quantity != qty {
		return fmt.Errorf("expected quantity %d for %q, got %d", qty, id, item.Quantity)
	}
	return nil
}

func (c *cartTestContext) theCartHasNoLine(id string) error {
	if _, ok := c.store.Item(id); ok {
		return fmt.Errorf("line %q still present", id)
	}
	return nil
}

func (c *cartTestContext) theCartHoldsItems(n int) error {
	if got := c.store.TotalItems(); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total int64) error {
	if got := c.store.TotalPrice(); got != total {
		return fmt.Errorf("expected total %d, got %d", total, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if !c.store.IsEmpty() {
		return fmt.Errorf("expected empty cart, got %d lines", len(c.store.Items()))
	}
	return nil
}

func (c *cartTestContext) theCartIsOpen() error {
	if !c.store.IsOpen() {
		return fmt.Errorf("expected cart to be open")
	}
	return nil
}

func (c *cartTestContext) theCartIsClosed() error {
	if c.store.IsOpen() {
		return fmt.Errorf("expected cart to be closed")
	}
	return nil
}

func (c *cartTestContext) theOrderMessageContains(fragment string) error {
	if msg := c.store.OrderSummary(); !strings.Contains(msg, fragment) {
		return fmt.Errorf("order message %q does not contain %q", msg, fragment)
	}
	return nil
}

func (c *cartTestContext) theOrderMessageIs(want string) error {
	if msg := c.store.OrderSummary(); msg != want {
		return fmt.Errorf("expected order message %q, got %q", want, msg)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the menu contains:$`, tc.theMenuContains)
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the saved cart contains "([^"]*)"$`, tc.theSavedCartContains)

	// When steps
	ctx.Step(`^I add "([^"]*)" to the cart$`, tc.iAddToTheCart)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantityOfTo)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I reload the page$`, tc.iReloadThePage)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the line "([^"]*)" has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the cart has no line "([^"]*)"$`, tc.theCartHasNoLine)
	ctx.Step(`^the cart holds (\d+) items$`, tc.theCartHoldsItems)
	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart is open$`, tc.theCartIsOpen)
	ctx.Step(`^the cart is closed$`, tc.theCartIsClosed)
	ctx.Step(`^the order message contains "([^"]*)"$`, tc.theOrderMessageContains)
	ctx.Step(`^the order message is "([^"]*)"$`, tc.theOrderMessageIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
