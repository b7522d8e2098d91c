package service

import (
	"context"

	"quiz-engine/internal/bank"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/logger"

	"go.uber.org/zap"
)

// BankService exposes the question bank catalog and its admin operations.
type BankService interface {
	Catalog() *dto.CatalogResponse
	RecoveryTopics(discipline string) (*dto.RecoveryTopicsResponse, error)
	Stats() bank.Stats
	Reload(ctx context.Context) (*dto.ReloadResponse, error)
}

type bankService struct {
	bank *bank.Bank
}

func NewBankService(b *bank.Bank) BankService {
	return &bankService{bank: b}
}

func (s *bankService) Catalog() *dto.CatalogResponse {
	snap := s.bank.Current()
	resp := &dto.CatalogResponse{
		Periods:             []dto.PeriodCatalogResponse{},
		RecoveryDisciplines: snap.RecoveryDisciplines(),
	}
	for _, p := range snap.PeriodDisciplines() {
		resp.Periods = append(resp.Periods, dto.PeriodCatalogResponse{Period: p.Period, Disciplines: p.Disciplines})
	}
	return resp
}

func (s *bankService) RecoveryTopics(discipline string) (*dto.RecoveryTopicsResponse, error) {
	topics, err := s.bank.Current().RecoveryTopics(discipline)
	if err != nil {
		return nil, err
	}
	resp := &dto.RecoveryTopicsResponse{
		Discipline: discipline,
		AllTopics:  domain.AllTopics,
		Topics:     make([]dto.TopicResponse, len(topics)),
	}
	for i, t := range topics {
		resp.Topics[i] = dto.TopicResponse{Name: t.Name, QuestionCount: t.QuestionCount}
	}
	return resp, nil
}

func (s *bankService) Stats() bank.Stats {
	return s.bank.Current().Stats()
}

// Reload swaps in a freshly loaded snapshot. Running sessions hold their own
// question copies and are unaffected.
func (s *bankService) Reload(ctx context.Context) (*dto.ReloadResponse, error) {
	snap, err := s.bank.Reload(ctx)
	if err != nil {
		return nil, err
	}
	stats := snap.Stats()
	logger.Get().Info("Question bank reloaded by admin",
		zap.Int("corpus_questions", stats.CorpusQuestions),
		zap.Int("recovery_topics", stats.RecoveryTopics))
	return &dto.ReloadResponse{
		CorpusQuestions: stats.CorpusQuestions,
		RecoveryTopics:  stats.RecoveryTopics,
		SkippedRecords:  stats.SkippedRecords,
		LoadedAt:        stats.LoadedAt,
	}, nil
}
