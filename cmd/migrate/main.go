package main

import (
	"fmt"
	"os"

	"quiz-engine/internal/config"
	"quiz-engine/internal/database"
	"quiz-engine/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newMigrateCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply pending schema migrations for the configured database driver",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := logger.Initialize(cfg.Logger); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()
			l := logger.Get()

			if dir == "" {
				dir = cfg.MigrationsPath()
			}

			db, err := database.Open(cfg.DB)
			if err != nil {
				l.Error("Failed to connect to database", zap.String("driver", cfg.DB.Driver), zap.Error(err))
				return err
			}
			defer db.Close()

			ran, err := database.RunMigrations(db, cfg.DB.Driver, dir)
			if err != nil {
				l.Error("Failed to run migrations", zap.String("dir", dir), zap.Error(err))
				return err
			}
			l.Info("Migrations finished", zap.String("dir", dir), zap.Strings("applied", ran))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the *.up.sql files (default: <db.migrations_dir>/<db.driver>)")
	return cmd
}
