package cli

import (
	"fmt"
	"time"

	"philosophers-service/internal/auth"
	"philosophers-service/internal/config"
	"philosophers-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewTokenCmd issues a viewer token signed with the configured secret, standing in for
// the platform during development.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID int64
		name   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a viewer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--uid is required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			token, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer).Issue(domain.Viewer{UserID: userID, Name: name}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "uid", 0, "platform user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenDuration, "token lifetime")
	return cmd
}
