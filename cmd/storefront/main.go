package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "storefront",
		Usage: "Sweet Trails catering storefront",
		Commands: []*cli.Command{
			serveCommand(),
			cartCommand(),
			catalogueCommand(),
			{
				Name:  "generate-keys",
				Usage: "Generate session authentication and encryption keys for .env",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return printKeys(cmd.Root().Writer)
				},
			},
		},
	}
}
