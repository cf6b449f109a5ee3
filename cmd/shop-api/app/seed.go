package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	"github.com/snake-eaterr/Snake-Way-Server/internal/bootstrap"
	"github.com/snake-eaterr/Snake-Way-Server/internal/fixtures"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the fixture product catalog into the configured store",
		Long: `Insert the fixture product catalog into the configured store.

Products are appended; running seed twice inserts the catalog twice.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, bootstrap.Options{}, func(a *bootstrap.App, _ configs.Config, log *zap.Logger) error {
				defer func() { _ = a.Close(context.Background()) }()
				n, err := seedCatalog(ctx, a.Catalog)
				if err != nil {
					return err
				}
				log.Info("catalog seeded", zap.Int("products", n))
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d products\n", n)
				return nil
			})
		},
	}
}

func seedCatalog(ctx context.Context, catalog *usecase.Catalog) (int, error) {
	products := fixtures.InitialProducts(time.Now())
	for i := range products {
		if err := catalog.CreateProduct(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("seed %q: %w", products[i].Label, err)
		}
	}
	return len(products), nil
}
