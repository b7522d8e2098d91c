package main

import (
	"fmt"
	"io"
	"time"

	"quiz-engine/internal/bank"
	"quiz-engine/internal/config"
	"quiz-engine/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type mergeOptions struct {
	mainPath          string
	stagingFiles      []string
	stagingDir        string
	dryRun            bool
	inferPeriod       bool
	inferDiscipline   bool
	defaultPeriod     int
	defaultDiscipline string
}

type mergeSummary struct {
	Files      int
	Existing   int
	Staged     int
	Invalid    int
	Added      int
	Duplicates int
	Total      int
	BackupPath string
	Written    bool
}

func newMergeCmd() *cobra.Command {
	opts := mergeOptions{}
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge staged question files into the main bank",
		Long: "merge appends staged questions that are not already in the main bank. Existing entries, " +
			"including keys the loader does not use, and a {\"questions\": [...]} wrapper are kept as they are.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mainPath == "" || opts.stagingDir == "" {
				// fall back to the server configuration for paths not given on the command line
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				if opts.mainPath == "" {
					opts.mainPath = cfg.Bank.CorpusPath
				}
				if opts.stagingDir == "" && len(opts.stagingFiles) == 0 {
					opts.stagingDir = cfg.Bank.StagingDir
				}
			}
			summary, err := runMerge(opts, time.Now())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), opts, summary)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mainPath, "main", "", "main bank file (defaults to bank.corpus_path)")
	f.StringSliceVar(&opts.stagingFiles, "staging", nil, "staged question file, repeatable")
	f.StringVar(&opts.stagingDir, "staging-dir", "", "directory scanned recursively for .json/.yaml files")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing")
	f.BoolVar(&opts.inferPeriod, "infer-period", false, "take the period from a periodo_N/period_N directory")
	f.BoolVar(&opts.inferDiscipline, "infer-discipline", false, "take the discipline from the file name")
	f.IntVar(&opts.defaultPeriod, "period", 0, "period for records that have none (0 = leave empty)")
	f.StringVar(&opts.defaultDiscipline, "discipline", "", "discipline for records that have none")
	return cmd
}

func runMerge(opts mergeOptions, now time.Time) (mergeSummary, error) {
	var summary mergeSummary

	files := append([]string(nil), opts.stagingFiles...)
	if opts.stagingDir != "" {
		found, err := bank.CollectStagingFiles(opts.stagingDir)
		if err != nil {
			return summary, err
		}
		files = append(files, found...)
	}
	summary.Files = len(files)
	if len(files) == 0 {
		return summary, fmt.Errorf("no staging files found")
	}

	mainFile, err := bank.ReadBankFile(opts.mainPath)
	if err != nil {
		return summary, err
	}
	summary.Existing = len(mainFile.Records)

	stagingOpts := bank.StagingOptions{
		InferPeriod:       opts.inferPeriod,
		InferDiscipline:   opts.inferDiscipline,
		DefaultDiscipline: opts.defaultDiscipline,
	}
	if opts.defaultPeriod > 0 {
		p := opts.defaultPeriod
		stagingOpts.DefaultPeriod = &p
	}
	staged, err := bank.LoadStaging(files, stagingOpts)
	if err != nil {
		return summary, err
	}
	summary.Staged = len(staged)

	loader, err := bank.NewLoader()
	if err != nil {
		return summary, err
	}
	valid, invalid := loader.FilterValid("staging", staged)
	summary.Invalid = invalid

	merged, added, duplicates := bank.Merge(mainFile.Records, valid)
	summary.Added = added
	summary.Duplicates = duplicates
	summary.Total = len(merged)

	if opts.dryRun || added == 0 {
		return summary, nil
	}

	backup, err := bank.BackupFile(opts.mainPath, now)
	if err != nil {
		return summary, fmt.Errorf("backup %s: %w", opts.mainPath, err)
	}
	summary.BackupPath = backup

	// existing entries are written back as read; only the new records are appended
	if err := mainFile.Append(merged[summary.Existing:]...); err != nil {
		return summary, err
	}
	if err := mainFile.Write(opts.mainPath); err != nil {
		return summary, err
	}
	summary.Written = true
	logger.Get().Info("Bank merged",
		zap.String("main", opts.mainPath),
		zap.Int("added", added),
		zap.Int("duplicates", duplicates),
		zap.String("backup", backup))
	return summary, nil
}

func printSummary(w io.Writer, opts mergeOptions, s mergeSummary) {
	fmt.Fprintf(w, "Main bank:        %s (%d questions)\n", opts.mainPath, s.Existing)
	fmt.Fprintf(w, "Staging files:    %d (%d questions, %d invalid)\n", s.Files, s.Staged, s.Invalid)
	fmt.Fprintf(w, "New questions:    %d\n", s.Added)
	fmt.Fprintf(w, "Duplicates:       %d\n", s.Duplicates)
	fmt.Fprintf(w, "Total after merge: %d\n", s.Total)
	switch {
	case opts.dryRun:
		fmt.Fprintln(w, "Dry run, nothing written.")
	case !s.Written:
		fmt.Fprintln(w, "Nothing to add, main bank unchanged.")
	default:
		if s.BackupPath != "" {
			fmt.Fprintf(w, "Backup:           %s\n", s.BackupPath)
		}
		fmt.Fprintln(w, "Main bank updated.")
	}
}
