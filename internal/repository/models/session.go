package models

import (
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/util"
)

// SessionRecordVersion is bumped when the persisted layout changes incompatibly.
const SessionRecordVersion = 1

// SessionRecord is the persisted form of a quiz session. Timestamps are stored as
// RFC3339Nano UTC strings; unparseable values read back as the current time.
type SessionRecord struct {
	Version      int                      `json:"version"`
	ID           string                   `json:"id"`
	Mode         domain.Mode              `json:"mode"`
	Criteria     domain.SelectionCriteria `json:"criteria"`
	TopicName    string                   `json:"topic_name,omitempty"`
	Questions    []domain.Question        `json:"questions"`
	CurrentIndex int                      `json:"current_index"`
	Answers      []domain.AnswerRecord    `json:"answers"`
	StartedAt    string                   `json:"started_at"`
	FinishedAt   *string                  `json:"finished_at,omitempty"`
	Preferences  domain.Preferences       `json:"preferences,omitempty"`
}

// SessionRow is one row of the quiz_sessions table. Payload holds the JSON SessionRecord;
// the other columns are denormalized for listing and retention queries.
type SessionRow struct {
	ID         string  `db:"ID"`
	Mode       string  `db:"MODE"`
	Payload    string  `db:"PAYLOAD"`
	StartedAt  string  `db:"STARTED_AT"`
	FinishedAt *string `db:"FINISHED_AT"`
	UpdatedAt  string  `db:"UPDATED_AT"`
}

// FromDomainSession converts a session into its persisted form.
func FromDomainSession(s *domain.QuizSession) *SessionRecord {
	if s == nil {
		return nil
	}
	rec := &SessionRecord{
		Version:      SessionRecordVersion,
		ID:           s.ID,
		Mode:         s.Mode,
		Criteria:     s.Criteria,
		TopicName:    s.TopicName,
		Questions:    s.Questions,
		CurrentIndex: s.CurrentIndex,
		Answers:      s.Answers,
		StartedAt:    util.FormatTime(s.StartedAt),
		Preferences:  s.Preferences,
	}
	if rec.Questions == nil {
		rec.Questions = []domain.Question{}
	}
	if rec.Answers == nil {
		rec.Answers = []domain.AnswerRecord{}
	}
	if s.FinishedAt != nil {
		f := util.FormatTime(*s.FinishedAt)
		rec.FinishedAt = &f
	}
	return rec
}

// ToDomainSession converts a persisted record back. now supplies the fallback for
// timestamps that cannot be parsed.
func (r *SessionRecord) ToDomainSession(now func() time.Time) *domain.QuizSession {
	if r == nil {
		return nil
	}
	s := &domain.QuizSession{
		ID:           r.ID,
		Mode:         r.Mode,
		Criteria:     r.Criteria,
		TopicName:    r.TopicName,
		Questions:    r.Questions,
		CurrentIndex: r.CurrentIndex,
		Answers:      r.Answers,
		StartedAt:    util.ParseTimeOr(r.StartedAt, now),
		Preferences:  r.Preferences,
	}
	if s.Mode == "" {
		s.Mode = domain.ModeNormal
	}
	if s.Answers == nil {
		s.Answers = []domain.AnswerRecord{}
	}
	if r.FinishedAt != nil {
		f := util.ParseTimeOr(*r.FinishedAt, now)
		s.FinishedAt = &f
	}
	return s
}
