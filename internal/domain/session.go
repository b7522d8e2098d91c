package domain

import (
	"context"
	"errors"
	"time"
)

// Mode selects which corpus a session draws from.
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeRecovery Mode = "recovery"
)

// AllTopics is the recovery topic sentinel that merges every topic of a discipline.
const AllTopics = "all"

// AllTopicsDisplayName is stored on sessions created with the AllTopics sentinel.
const AllTopicsDisplayName = "All topics (mixed review)"

const (
	MinQuestionCount = 1
	MaxQuestionCount = 50
)

// SelectionCriteria describes which questions a new session should draw.
type SelectionCriteria struct {
	Mode           Mode   `json:"mode"`
	Period         *int   `json:"period,omitempty"`
	Discipline     string `json:"discipline"`
	Topic          string `json:"topic,omitempty"`
	RequestedCount int    `json:"requested_count"`
}

// ClampCount bounds a requested count to [MinQuestionCount, MaxQuestionCount].
func ClampCount(n int) int {
	if n < MinQuestionCount {
		return MinQuestionCount
	}
	if n > MaxQuestionCount {
		return MaxQuestionCount
	}
	return n
}

// Preferences is an opaque pass-through of user settings, e.g. {"read_aloud": true}.
type Preferences map[string]interface{}

// AnswerRecord is one entry in the append-only answer log of a session.
type AnswerRecord struct {
	QuestionID          string     `json:"question_id"`
	QuestionText        string     `json:"question_text"`
	SubmittedOption     string     `json:"submitted_option"`
	CorrectOption       string     `json:"correct_option"`
	IsCorrect           bool       `json:"is_correct"`
	Points              int        `json:"points"`
	ResponseTimeSeconds float64    `json:"response_time_seconds"`
	Explanation         string     `json:"explanation,omitempty"`
	Difficulty          Difficulty `json:"difficulty,omitempty"`
	Unanswered          bool       `json:"unanswered,omitempty"`
}

// QuizSession is one quiz attempt from creation to finalization.
type QuizSession struct {
	ID           string            `json:"id"`
	Mode         Mode              `json:"mode"`
	Criteria     SelectionCriteria `json:"criteria"`
	TopicName    string            `json:"topic_name,omitempty"`
	Questions    []Question        `json:"questions"`
	CurrentIndex int               `json:"current_index"`
	Answers      []AnswerRecord    `json:"answers"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	Preferences  Preferences       `json:"preferences,omitempty"`
}

// IsCompleted reports whether every question has been advanced past.
func (s *QuizSession) IsCompleted() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// CurrentQuestion returns the active question, or false when the session is completed.
func (s *QuizSession) CurrentQuestion() (Question, bool) {
	if s.IsCompleted() {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// ErrSessionRecordNotFound is returned by SessionStore implementations for unknown ids.
var ErrSessionRecordNotFound = errors.New("session record not found")

// SessionStore is the durable, atomic persistence of session state.
type SessionStore interface {
	// Save writes the full session, replacing any previous record atomically.
	Save(ctx context.Context, session *QuizSession) error
	// Load returns ErrSessionRecordNotFound if no record exists for id.
	Load(ctx context.Context, id string) (*QuizSession, error)
}

// ReportItem is one answered question in a report.
type ReportItem struct {
	Number          int      `json:"number"`
	QuestionText    string   `json:"question_text"`
	Options         []string `json:"options"`
	SubmittedOption string   `json:"submitted_option"`
	CorrectOption   string   `json:"correct_option"`
	IsCorrect       bool     `json:"is_correct"`
	Points          int      `json:"points"`
	Explanation     string   `json:"explanation,omitempty"`
}

// Report is the read-only summary of a session.
type Report struct {
	SessionID      string       `json:"session_id"`
	Mode           Mode         `json:"mode"`
	Discipline     string       `json:"discipline"`
	Topic          string       `json:"topic,omitempty"`
	TotalQuestions int          `json:"total_questions"`
	AnsweredCount  int          `json:"answered_count"`
	Unanswered     int          `json:"unanswered_count"`
	CorrectCount   int          `json:"correct_count"`
	TotalPoints    int          `json:"total_points"`
	Accuracy       float64      `json:"accuracy"`
	ElapsedDisplay string       `json:"elapsed"`
	Items          []ReportItem `json:"items"`
}
