package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fjod/sweet-trails/internal/catalogue"
	"github.com/fjod/sweet-trails/internal/money"
	"github.com/urfave/cli/v3"
)

func catalogueCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalogue",
		Usage: "Browse the menu",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalogue-db", Value: ":memory:", Usage: "catalogue database", Sources: cli.EnvVars("CATALOGUE_DB")},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "only this category (small-chops, main-meals, drinks, packages)"},
				},
				Action: listProducts,
			},
		},
	}
}

func listProducts(ctx context.Context, cmd *cli.Command) error {
	repo, err := catalogue.Open(cmd.String("catalogue-db"))
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer repo.Close()

	var products []catalogue.Product
	if category := cmd.String("category"); category != "" {
		products, err = repo.ByCategory(ctx, category)
	} else {
		products, err = repo.Products(ctx)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, money.Format(p.Price))
	}
	return tw.Flush()
}
