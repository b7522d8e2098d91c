package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"quiz-engine/internal/config"
	"quiz-engine/internal/service"

	"github.com/spf13/cobra"
)

func main() {
	if err := newTokenCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:          "admintoken",
		Short:        "Issue a bearer token for the /api/admin routes",
		Long:         "admintoken signs an admin JWT with auth.jwt_secret (or ADMIN_JWT_SECRET) and prints it.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return issueToken(cmd.Context(), cmd.OutOrStdout(), cfg.Auth, subject, ttl)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject, logged by admin handlers")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

func issueToken(ctx context.Context, w io.Writer, cfg config.AuthConfig, subject string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	token, err := service.NewAuthService(cfg).CreateJWT(ctx, subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
