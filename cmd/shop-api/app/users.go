package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	"github.com/snake-eaterr/Snake-Way-Server/internal/bootstrap"
)

func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Operator commands for user accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "grant <username> <role>",
		Short:         "Grant a role to a user",
		Example:       "  shop-api users grant luke fulfillment",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, bootstrap.Options{}, func(a *bootstrap.App, _ configs.Config, log *zap.Logger) error {
				defer func() { _ = a.Close(context.Background()) }()
				u, err := a.Users.GrantRole(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				log.Info("role granted", zap.String("user", u.Username), zap.String("role", args[1]))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", u.Username, strings.Join(u.Roles, ","))
				return nil
			})
		},
	})
	return cmd
}
