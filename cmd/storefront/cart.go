package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fjod/sweet-trails/internal/cart"
	"github.com/fjod/sweet-trails/internal/catalogue"
	"github.com/fjod/sweet-trails/internal/handoff"
	"github.com/fjod/sweet-trails/internal/logger"
	"github.com/fjod/sweet-trails/internal/money"
	"github.com/fjod/sweet-trails/internal/storage"
	"github.com/urfave/cli/v3"
)

// localSession names the one cart kept by the command line.
const localSession = "local"

func cartCommand() *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "Work with a cart saved on this machine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: ".storefront", Usage: "directory holding the saved cart", Sources: cli.EnvVars("STORAGE_DIR")},
			&cli.StringFlag{Name: "catalogue-db", Value: ":memory:", Usage: "catalogue database", Sources: cli.EnvVars("CATALOGUE_DB")},
			&cli.StringFlag{Name: "shop-name", Value: cart.DefaultShopName, Usage: "business name in the order message", Sources: cli.EnvVars("SHOP_NAME")},
			&cli.StringFlag{Name: "number", Value: handoff.DefaultNumber, Usage: "WhatsApp number for the order link", Sources: cli.EnvVars("WHATSAPP_NUMBER")},
		},
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the cart",
				Action: withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error { return printCart(out(cmd), s) }),
			},
			{
				Name:      "add",
				Usage:     "Add one of a product",
				ArgsUsage: "<product-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireArg(cmd, 0, "product-id")
					if err != nil {
						return err
					}
					repo, err := catalogue.Open(cmd.String("catalogue-db"))
					if err != nil {
						return fmt.Errorf("open catalogue: %w", err)
					}
					defer repo.Close()

					p, err := repo.Product(ctx, id)
					if err != nil {
						return err
					}
					return withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error {
						s.AddItem(p.ProductRef())
						return printCart(out(cmd), s)
					})(ctx, cmd)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a line",
				ArgsUsage: "<product-id>",
				Action: withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error {
					id, err := requireArg(cmd, 0, "product-id")
					if err != nil {
						return err
					}
					s.RemoveItem(id)
					return printCart(out(cmd), s)
				}),
			},
			{
				Name:      "set",
				Usage:     "Set the quantity of a line, 0 removes it",
				ArgsUsage: "<product-id> <quantity>",
				Action: withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error {
					id, err := requireArg(cmd, 0, "product-id")
					if err != nil {
						return err
					}
					raw, err := requireArg(cmd, 1, "quantity")
					if err != nil {
						return err
					}
					qty, err := strconv.Atoi(raw)
					if err != nil {
						return fmt.Errorf("invalid quantity %q", raw)
					}
					s.UpdateQuantity(id, qty)
					return printCart(out(cmd), s)
				}),
			},
			{
				Name:  "clear",
				Usage: "Empty the cart",
				Action: withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error {
					s.ClearCart()
					return printCart(out(cmd), s)
				}),
			},
			{
				Name:  "summary",
				Usage: "Print the order message",
				Action: withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error {
					_, err := fmt.Fprintln(out(cmd), s.OrderSummary())
					return err
				}),
			},
			{
				Name:  "link",
				Usage: "Print the WhatsApp link carrying the order message",
				Action: withCart(func(_ context.Context, cmd *cli.Command, s *cart.Store) error {
					_, err := fmt.Fprintln(out(cmd), handoff.WhatsAppLink(cmd.String("number"), s.OrderSummary()))
					return err
				}),
			},
		},
	}
}

type cartAction func(ctx context.Context, cmd *cli.Command, s *cart.Store) error

// withCart restores the local cart before running fn. Every change fn makes
// is written back to the cart file as it happens.
func withCart(fn cartAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		kv, err := storage.NewFileKV(cmd.String("dir"))
		if err != nil {
			return err
		}
		log := logger.New(os.Stderr, logger.Options{Level: "warn", Format: "text"})
		s := cart.Open(ctx, storage.NewSlot(kv, storage.CartKey(localSession)),
			cart.WithShopName(cmd.String("shop-name")),
			cart.WithLogger(log),
		)
		return fn(ctx, cmd, s)
	}
}

func requireArg(cmd *cli.Command, i int, name string) (string, error) {
	if cmd.Args().Len() <= i || cmd.Args().Get(i) == "" {
		return "", fmt.Errorf("missing argument <%s>", name)
	}
	return cmd.Args().Get(i), nil
}

func out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func printCart(w io.Writer, s *cart.Store) error {
	if s.IsEmpty() {
		_, err := fmt.Fprintln(w, "Your cart is empty")
		return err
	}
	for _, item := range s.Items() {
		if _, err := fmt.Fprintf(w, "%-30s x%-3d %10s\n", item.Name, item.Quantity, money.Format(item.Subtotal())); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d items, total %s\n", s.TotalItems(), money.Format(s.TotalPrice()))
	return err
}
