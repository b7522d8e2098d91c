package main

import (
	"quiz-engine/internal/config"
	"quiz-engine/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "banksync",
	Short: "Maintain the question bank files",
	Long:  "banksync merges staged question files into the main bank, skipping duplicates and backing up the bank first.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		return logger.Initialize(config.LoggerConfig{Level: level, Env: "development"})
	},
	SilenceUsage: true,
}

func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newMergeCmd())
}
