package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/scoring"
	"quiz-engine/internal/selection"
	"quiz-engine/internal/util"

	"go.uber.org/zap"
)

// SessionService is the quiz session state machine. A session is Active while
// current_index < len(questions) and Completed afterwards.
type SessionService interface {
	CreateSession(ctx context.Context, criteria domain.SelectionCriteria, prefs domain.Preferences) (*domain.QuizSession, error)
	CurrentQuestion(ctx context.Context, sessionID string) (*dto.QuestionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, submittedOption string) (*dto.SubmitAnswerResponse, error)
	Finalize(ctx context.Context, sessionID string) (*domain.QuizSession, error)
	Report(ctx context.Context, sessionID string) (*domain.Report, error)
}

// sessionService implements SessionService
type sessionService struct {
	bank     domain.QuestionBankProvider
	selector *selection.Selector
	store    domain.SessionStore
	locks    *sessionLocks
	now      func() time.Time
	newID    func() string
}

// SessionOption configures the session service.
type SessionOption func(*sessionService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *sessionService) { s.now = now }
}

// WithSessionIDGenerator replaces the ULID generator.
func WithSessionIDGenerator(fn func() string) SessionOption {
	return func(s *sessionService) { s.newID = fn }
}

// NewSessionService creates a new instance of sessionService
func NewSessionService(
	bank domain.QuestionBankProvider,
	selector *selection.Selector,
	store domain.SessionStore,
	opts ...SessionOption,
) SessionService {
	s := &sessionService{
		bank:     bank,
		selector: selector,
		store:    store,
		locks:    newSessionLocks(),
		now:      time.Now,
		newID:    util.NewULID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession implements SessionService
func (s *sessionService) CreateSession(ctx context.Context, criteria domain.SelectionCriteria, prefs domain.Preferences) (*domain.QuizSession, error) {
	if criteria.Mode == "" {
		criteria.Mode = domain.ModeNormal
	}
	criteria.RequestedCount = domain.ClampCount(criteria.RequestedCount)

	questions, err := s.selector.Select(s.bank.Snapshot(), criteria)
	if err != nil {
		logger.Get().Info("Session selection rejected",
			zap.String("mode", string(criteria.Mode)),
			zap.String("discipline", criteria.Discipline),
			zap.String("topic", criteria.Topic),
			zap.Error(err))
		return nil, err
	}

	session := &domain.QuizSession{
		ID:           s.newID(),
		Mode:         criteria.Mode,
		Criteria:     criteria,
		TopicName:    topicDisplayName(criteria),
		Questions:    questions,
		CurrentIndex: 0,
		Answers:      []domain.AnswerRecord{},
		StartedAt:    s.now().UTC(),
		Preferences:  prefs,
	}

	if err := s.store.Save(ctx, session); err != nil {
		logger.Get().Error("Failed to persist new session", zap.String("session_id", session.ID), zap.Error(err))
		return nil, domain.NewPersistenceError(session.ID, err)
	}

	logger.Get().Info("Session created",
		zap.String("session_id", session.ID),
		zap.String("mode", string(session.Mode)),
		zap.String("discipline", criteria.Discipline),
		zap.Int("requested", criteria.RequestedCount),
		zap.Int("count", len(questions)))
	return session, nil
}

func topicDisplayName(criteria domain.SelectionCriteria) string {
	if criteria.Mode != domain.ModeRecovery {
		return ""
	}
	if strings.EqualFold(strings.TrimSpace(criteria.Topic), domain.AllTopics) {
		return domain.AllTopicsDisplayName
	}
	return criteria.Topic
}

func (s *sessionService) load(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionRecordNotFound) {
			return nil, domain.NewSessionNotFoundError(sessionID)
		}
		logger.Get().Error("Failed to load session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, domain.NewPersistenceError(sessionID, err)
	}
	return session, nil
}

// CurrentQuestion implements SessionService
func (s *sessionService) CurrentQuestion(ctx context.Context, sessionID string) (*dto.QuestionResponse, error) {
	// reads take the session lock too, so a cached store never races a write for the same id
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	total := len(session.Questions)
	elapsed := scoring.Elapsed(session.StartedAt, s.now())
	resp := &dto.QuestionResponse{
		SessionID:        session.ID,
		Total:            total,
		TopicName:        session.TopicName,
		RemainingSeconds: int(scoring.Remaining(total, elapsed)),
		Preferences:      session.Preferences,
	}

	q, ok := session.CurrentQuestion()
	if !ok {
		resp.Completed = true
		return resp, nil
	}

	resp.QuestionID = q.ID
	resp.Number = session.CurrentIndex + 1
	resp.Text = q.Text
	resp.Discipline = q.Discipline
	resp.Difficulty = string(q.Difficulty)
	resp.Options = make([]dto.OptionView, len(q.Options))
	for i, opt := range q.Options {
		resp.Options[i] = dto.OptionView{Letter: string(rune('A' + i)), Text: opt}
	}
	return resp, nil
}

// SubmitAnswer implements SessionService
func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID, submittedOption string) (*dto.SubmitAnswerResponse, error) {
	// an empty option is reserved for the unanswered records finalize writes
	if submittedOption == "" {
		return nil, domain.NewError(domain.CodeMissingField, "No answer provided", nil).
			WithContext("field", "submitted_option")
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	q, ok := session.CurrentQuestion()
	if !ok {
		return nil, domain.NewAlreadyCompletedError(sessionID)
	}

	n := len(session.Questions)
	index := session.CurrentIndex
	correct := submittedOption == q.CorrectOption
	score, elapsed, ok := scoring.ScoreAnswer(session.StartedAt, s.now(), n, index, correct)
	if !ok {
		logger.Get().Info("Answer rejected, session time budget exhausted",
			zap.String("session_id", sessionID),
			zap.Float64("elapsed", elapsed),
			zap.Float64("budget", scoring.TotalBudget(n)))
		return nil, domain.NewTimeExpiredError(sessionID, elapsed, scoring.TotalBudget(n))
	}

	record := domain.AnswerRecord{
		QuestionID:          q.ID,
		QuestionText:        q.Text,
		SubmittedOption:     submittedOption,
		CorrectOption:       q.CorrectOption,
		IsCorrect:           correct,
		Points:              score.Points,
		ResponseTimeSeconds: score.QuestionElapsed,
		Explanation:         q.Explanation,
		Difficulty:          q.Difficulty,
	}
	session.Answers = append(session.Answers, record)
	session.CurrentIndex++

	// the loaded copy is discarded on failure, so the durable record stays as it was
	if err := s.store.Save(ctx, session); err != nil {
		logger.Get().Error("Failed to persist answer",
			zap.String("session_id", sessionID),
			zap.Int("question_index", index),
			zap.Error(err))
		return nil, domain.NewPersistenceError(sessionID, err)
	}

	logger.Get().Debug("Answer recorded",
		zap.String("session_id", sessionID),
		zap.Int("question_index", index),
		zap.Bool("correct", correct),
		zap.Int("points", score.Points))

	resp := &dto.SubmitAnswerResponse{
		QuestionID:    record.QuestionID,
		IsCorrect:     record.IsCorrect,
		CorrectOption: record.CorrectOption,
		Points:        record.Points,
		ResponseTime:  record.ResponseTimeSeconds,
		Explanation:   record.Explanation,
		Completed:     session.IsCompleted(),
	}
	if !resp.Completed {
		resp.NextQuestionNumber = session.CurrentIndex + 1
	}
	return resp, nil
}

// Finalize implements SessionService. Every call stamps finished_at again
// (last call wins); the answers shape is the same no matter how often it runs.
func (s *sessionService) Finalize(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	finished := s.now().UTC()
	session.FinishedAt = &finished

	answeredIDs := make(map[string]struct{}, len(session.Answers))
	answeredTexts := make(map[string]struct{})
	for _, a := range session.Answers {
		if a.QuestionID != "" {
			answeredIDs[a.QuestionID] = struct{}{}
		} else {
			// records written before questions carried ids are matched by text
			answeredTexts[a.QuestionText] = struct{}{}
		}
	}

	added := 0
	for _, q := range session.Questions {
		if _, ok := answeredIDs[q.ID]; ok {
			continue
		}
		if _, ok := answeredTexts[q.Text]; ok {
			continue
		}
		session.Answers = append(session.Answers, domain.AnswerRecord{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
			Difficulty:    q.Difficulty,
			Unanswered:    true,
		})
		added++
	}
	session.CurrentIndex = len(session.Questions)

	if err := s.store.Save(ctx, session); err != nil {
		logger.Get().Error("Failed to persist finalized session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, domain.NewPersistenceError(sessionID, err)
	}

	logger.Get().Info("Session finalized",
		zap.String("session_id", sessionID),
		zap.Int("count", len(session.Questions)),
		zap.Int("unanswered_added", added))
	return session, nil
}

// Report implements SessionService
func (s *sessionService) Report(ctx context.Context, sessionID string) (*domain.Report, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return BuildReport(session, s.now()), nil
}

// BuildReport summarizes a session. Unanswered records are kept in the session but
// do not count towards accuracy. An unfinished session is timed up to now.
func BuildReport(session *domain.QuizSession, now time.Time) *domain.Report {
	optionsByID := make(map[string][]string, len(session.Questions))
	for _, q := range session.Questions {
		optionsByID[q.ID] = q.Options
	}

	report := &domain.Report{
		SessionID:      session.ID,
		Mode:           session.Mode,
		Discipline:     session.Criteria.Discipline,
		Topic:          session.TopicName,
		TotalQuestions: len(session.Questions),
		Items:          []domain.ReportItem{},
	}
	for _, a := range session.Answers {
		report.TotalPoints += a.Points
		if a.Unanswered {
			report.Unanswered++
			continue
		}
		report.AnsweredCount++
		if a.IsCorrect {
			report.CorrectCount++
		}
		report.Items = append(report.Items, domain.ReportItem{
			Number:          report.AnsweredCount,
			QuestionText:    a.QuestionText,
			Options:         optionsByID[a.QuestionID],
			SubmittedOption: a.SubmittedOption,
			CorrectOption:   a.CorrectOption,
			IsCorrect:       a.IsCorrect,
			Points:          a.Points,
			Explanation:     a.Explanation,
		})
	}
	if report.AnsweredCount > 0 {
		pct := float64(report.CorrectCount) / float64(report.AnsweredCount) * 100
		report.Accuracy = math.Round(pct*10) / 10
	}

	end := now
	if session.FinishedAt != nil {
		end = *session.FinishedAt
	}
	report.ElapsedDisplay = scoring.FormatElapsed(end.Sub(session.StartedAt))
	return report
}
