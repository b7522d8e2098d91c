package dto

import "time"

// CreateSessionRequest starts a new quiz session
// @Description Selection criteria and pass-through preferences
type CreateSessionRequest struct {
	Mode           string                 `json:"mode"`
	Period         *int                   `json:"period,omitempty"`
	Discipline     string                 `json:"discipline"`
	Topic          string                 `json:"topic,omitempty"`
	RequestedCount *int                   `json:"requested_count,omitempty"` // defaults to 15, clamped to [1,50]
	Preferences    map[string]interface{} `json:"preferences,omitempty"`
}

type CreateSessionResponse struct {
	SessionID      string    `json:"session_id"`
	Mode           string    `json:"mode"`
	Discipline     string    `json:"discipline"`
	TopicName      string    `json:"topic_name,omitempty"`
	TotalQuestions int       `json:"total_questions"`
	StartedAt      time.Time `json:"started_at"`
}

// OptionView is one answer option with its display letter.
type OptionView struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuestionResponse is the current question of a session, or just Completed=true.
type QuestionResponse struct {
	SessionID        string                 `json:"session_id"`
	Completed        bool                   `json:"completed"`
	QuestionID       string                 `json:"question_id,omitempty"`
	Number           int                    `json:"number,omitempty"`
	Total            int                    `json:"total"`
	Text             string                 `json:"text,omitempty"`
	Options          []OptionView           `json:"options,omitempty"`
	Discipline       string                 `json:"discipline,omitempty"`
	TopicName        string                 `json:"topic_name,omitempty"`
	Difficulty       string                 `json:"difficulty,omitempty"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	Preferences      map[string]interface{} `json:"preferences,omitempty"`
}

// SubmitAnswerRequest
// @Description An empty submitted_option is accepted and scored as incorrect
type SubmitAnswerRequest struct {
	SubmittedOption string `json:"submitted_option"`
}

type SubmitAnswerResponse struct {
	QuestionID         string  `json:"question_id"`
	IsCorrect          bool    `json:"is_correct"`
	CorrectOption      string  `json:"correct_option"`
	Points             int     `json:"points"`
	ResponseTime       float64 `json:"response_time_seconds"`
	Explanation        string  `json:"explanation,omitempty"`
	Completed          bool    `json:"completed"`
	NextQuestionNumber int     `json:"next_question_number,omitempty"`
}

type FinalizeResponse struct {
	SessionID       string    `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	TotalQuestions  int       `json:"total_questions"`
	AnsweredCount   int       `json:"answered_count"`
	UnansweredCount int       `json:"unanswered_count"`
	TotalPoints     int       `json:"total_points"`
}

type PeriodCatalogResponse struct {
	Period      int      `json:"period"`
	Disciplines []string `json:"disciplines"`
}

// CatalogResponse lists what can be requested in each mode.
type CatalogResponse struct {
	Periods             []PeriodCatalogResponse `json:"periods"`
	RecoveryDisciplines []string                `json:"recovery_disciplines"`
}

type TopicResponse struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

type RecoveryTopicsResponse struct {
	Discipline string          `json:"discipline"`
	AllTopics  string          `json:"all_topics"` // sentinel accepted as topic
	Topics     []TopicResponse `json:"topics"`
}

type ReloadResponse struct {
	CorpusQuestions int    `json:"corpus_questions"`
	RecoveryTopics  int    `json:"recovery_topics"`
	SkippedRecords  int    `json:"skipped_records"`
	LoadedAt        string `json:"loaded_at"`
}
