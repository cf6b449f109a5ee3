package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	"github.com/snake-eaterr/Snake-Way-Server/internal/bootstrap"
)

const defaultShutdownTimeout = 30 * time.Second

type ServeOptions struct {
	*RootOptions
	Seed bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and message consumers",
		Example: `  shop-api serve
  APP_ENV=prod shop-api serve
  shop-api serve --env dev --seed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "insert the fixture catalog before serving")
	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	bo := bootstrap.Options{Messaging: true, HTTP: true}
	return withApp(ctx, opts.RootOptions, bo, func(a *bootstrap.App, cfg configs.Config, log *zap.Logger) error {
		if opts.Seed {
			n, err := seedCatalog(ctx, a.Catalog)
			if err != nil {
				_ = a.Close(context.Background())
				return err
			}
			log.Info("catalog seeded", zap.Int("products", n))
		}
		if err := a.StartConsumers(context.Background()); err != nil {
			_ = a.Close(context.Background())
			return fmt.Errorf("start consumers: %w", err)
		}

		srv := &http.Server{
			Addr:         cfg.App.HTTPAddr,
			Handler:      a.Router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		}
		serveErr := make(chan error, 1)
		go func() {
			log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", opts.Env), zap.String("store", cfg.Store.Driver))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()

		timeout := cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		wait := gfshutdown.GracefulShutdown(context.Background(), timeout, a.ShutdownOps(srv.Shutdown))

		select {
		case err := <-serveErr:
			log.Error("http server failed", zap.Error(err))
			cctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			_ = a.Close(cctx)
			return err
		case code := <-wait:
			log.Info("shop-api exited", zap.Int("code", code))
			if code != 0 {
				return fmt.Errorf("shutdown finished with code %d", code)
			}
			return nil
		}
	})
}
