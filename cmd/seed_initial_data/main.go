package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"quiz-engine/cmd/seed_initial_data/internal/seedmodels"
	"quiz-engine/internal/bank"
	"quiz-engine/internal/config"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	//go:embed seed_data/questions.json
	seedCorpus []byte
	//go:embed seed_data/recovery_questions.json
	seedRecovery []byte
)

func main() {
	var (
		recoveryOut string
		force       bool
	)
	cmd := &cobra.Command{
		Use:          "seed_initial_data",
		Short:        "Write the example question bank files if they are missing",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(recoveryOut, force)
		},
	}
	cmd.Flags().StringVar(&recoveryOut, "recovery-out", "data/recovery_questions.json", "where to write the example recovery corpus")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seed(recoveryOut string, force bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("Starting example bank seeding...")

	var corpus seedmodels.SeedCorpus
	if err := json.Unmarshal(seedCorpus, &corpus); err != nil {
		return fmt.Errorf("unmarshal seed corpus: %w", err)
	}
	var recovery seedmodels.SeedRecovery
	if err := json.Unmarshal(seedRecovery, &recovery); err != nil {
		return fmt.Errorf("unmarshal seed recovery corpus: %w", err)
	}

	if err := seedFile(cfg.Bank.CorpusPath, corpus, force); err != nil {
		log.Error("Failed to seed corpus", zap.String("path", cfg.Bank.CorpusPath), zap.Error(err))
		return err
	}
	if err := seedFile(recoveryOut, recovery, force); err != nil {
		log.Error("Failed to seed recovery corpus", zap.String("path", recoveryOut), zap.Error(err))
		return err
	}

	// Load what is on disk the same way the server will, so a bad seed fails here.
	b, err := bank.New(context.Background(), config.BankConfig{
		CorpusPath:    cfg.Bank.CorpusPath,
		RecoveryGlobs: []string{recoveryOut},
	})
	if err != nil {
		log.Error("Seeded bank does not load", zap.Error(err))
		return err
	}
	stats := b.Current().Stats()
	log.Info("Example bank seeding completed.",
		zap.Int("seed_questions", len(corpus.Questions)),
		zap.Int("seed_recovery_questions", recovery.Count()),
		zap.Int("corpus_questions", stats.CorpusQuestions),
		zap.Int("recovery_questions", stats.RecoveryQuestions),
		zap.Int("skipped_records", stats.SkippedRecords))
	return nil
}

// seedFile writes v as indented JSON unless path already exists.
func seedFile(path string, v interface{}, force bool) error {
	log := logger.Get()
	if _, err := os.Stat(path); err == nil && !force {
		log.Info("File exists, leaving it untouched", zap.String("path", path))
		return nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	log.Info("Wrote seed file", zap.String("path", path))
	return nil
}
