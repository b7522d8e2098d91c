package service

import (
	"context"

	"quiz-engine/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockSessionStore ---
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSession), args.Error(1)
}
