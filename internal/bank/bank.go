// Package bank owns the question corpora. It loads and validates them once and serves
// an immutable snapshot that can be swapped wholesale on reload.
package bank

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logger"

	"go.uber.org/zap"
)

// Snapshot is a read-only view of both corpora at one point in time.
type Snapshot struct {
	corpus   []domain.Question
	recovery domain.RecoveryCorpus
	LoadedAt time.Time
	Skipped  int
}

func (s *Snapshot) Corpus() []domain.Question { return s.corpus }
func (s *Snapshot) Recovery() domain.RecoveryCorpus { return s.recovery }

// NewSnapshot builds a snapshot from already validated data.
func NewSnapshot(corpus []domain.Question, recovery domain.RecoveryCorpus) *Snapshot {
	if recovery == nil {
		recovery = domain.RecoveryCorpus{}
	}
	return &Snapshot{corpus: corpus, recovery: recovery, LoadedAt: time.Now().UTC()}
}

// Bank implements domain.QuestionBankProvider.
type Bank struct {
	cfg     config.BankConfig
	loader  *Loader
	current atomic.Pointer[Snapshot]
}

var _ domain.QuestionBankProvider = (*Bank)(nil)

// New loads the configured corpora. Invalid records are skipped; unreadable or
// malformed files are errors.
func New(ctx context.Context, cfg config.BankConfig) (*Bank, error) {
	loader, err := NewLoader()
	if err != nil {
		return nil, err
	}
	b := &Bank{cfg: cfg, loader: loader}
	snap, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	b.current.Store(snap)
	return b, nil
}

// NewStatic wraps a fixed snapshot. Reload is a no-op for static banks.
func NewStatic(corpus []domain.Question, recovery domain.RecoveryCorpus) *Bank {
	b := &Bank{}
	b.current.Store(NewSnapshot(corpus, recovery))
	return b
}

func (b *Bank) load(ctx context.Context) (*Snapshot, error) {
	corpus, skipped, err := b.loader.LoadCorpus(b.cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	files, err := ExpandGlobs(b.cfg.RecoveryGlobs)
	if err != nil {
		return nil, err
	}
	recovery, recSkipped, err := b.loader.LoadRecovery(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("load recovery corpus: %w", err)
	}

	snap := NewSnapshot(corpus, recovery)
	snap.Skipped = skipped + recSkipped
	logger.Get().Info("Question bank loaded",
		zap.Int("corpus_questions", len(corpus)),
		zap.Int("recovery_disciplines", len(recovery)),
		zap.Int("recovery_files", len(files)),
		zap.Int("skipped", snap.Skipped))
	return snap, nil
}

// Snapshot returns the current immutable view. Sessions created from an older
// snapshot keep their own copies of the questions, so a reload never affects them.
func (b *Bank) Snapshot() domain.BankSnapshot {
	return b.current.Load()
}

// Current is Snapshot with the concrete type, for catalog and stats callers.
func (b *Bank) Current() *Snapshot {
	return b.current.Load()
}

// Reload re-reads every file and swaps the snapshot. On failure the previous snapshot stays.
func (b *Bank) Reload(ctx context.Context) (*Snapshot, error) {
	if b.loader == nil {
		return b.current.Load(), nil
	}
	snap, err := b.load(ctx)
	if err != nil {
		logger.Get().Error("Question bank reload failed, keeping previous snapshot", zap.Error(err))
		return nil, domain.NewInternalError("question bank reload failed", err)
	}
	b.current.Store(snap)
	return snap, nil
}
