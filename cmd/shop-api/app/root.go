package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
	"github.com/snake-eaterr/Snake-Way-Server/internal/bootstrap"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigDir string
	Env       string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:   "shop-api",
		Short: "Snake Way shop GraphQL server",
		Long: `GraphQL API for the Snake Way shop: products, reviews, users and orders.

Without a subcommand the server is started, same as "shop-api serve".
Configuration is read from <config-dir>/base.yaml, then <config-dir>/<env>.yaml,
then SHOPAPI_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "configs", "directory holding base.yaml and the per-env files")
	cmd.PersistentFlags().StringVar(&opts.Env, "env", defaultEnv(), "config layer to apply on top of base.yaml (APP_ENV)")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	return cmd
}

func defaultEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" { // dev | staging | prod
		return env
	}
	return "dev"
}

// withApp loads the config and builds the application for the duration of fn.
func withApp(ctx context.Context, opts *RootOptions, bo bootstrap.Options, fn func(*bootstrap.App, configs.Config, *zap.Logger) error) error {
	cfg, err := configs.Load(opts.ConfigDir, opts.Env)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := observ.NewLogger(cfg.App.LogFile, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	a, err := bootstrap.New(ctx, cfg, log, bo)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	return fn(a, cfg, log)
}
