package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"
	CodeNoCriteria    ErrorCode = "NO_CRITERIA"

	// Lookup errors
	CodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	CodeDisciplineNotFound ErrorCode = "DISCIPLINE_NOT_FOUND"
	CodeTopicNotFound      ErrorCode = "TOPIC_NOT_FOUND"

	// Selection and session state errors
	CodeNoMatch          ErrorCode = "NO_MATCH"
	CodeAlreadyCompleted ErrorCode = "ALREADY_COMPLETED"
	CodeTimeExpired      ErrorCode = "TIME_EXPIRED"

	CodePersistence ErrorCode = "PERSISTENCE_ERROR"
)

// ErrorKind groups error codes into the categories callers act on.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindNoMatch      ErrorKind = "no_match"
	KindState        ErrorKind = "state"
	KindPersistence  ErrorKind = "persistence"
	KindUnauthorized ErrorKind = "unauthorized"
	KindInternal     ErrorKind = "internal"
)

// Kind returns the category of the error code.
func (c ErrorCode) Kind() ErrorKind {
	switch c {
	case CodeInvalidInput, CodeValidation, CodeMissingField, CodeInvalidFormat, CodeOutOfRange, CodeNoCriteria:
		return KindValidation
	case CodeSessionNotFound, CodeDisciplineNotFound, CodeTopicNotFound:
		return KindNotFound
	case CodeNoMatch:
		return KindNoMatch
	case CodeAlreadyCompleted, CodeTimeExpired:
		return KindState
	case CodePersistence:
		return KindPersistence
	case CodeUnauthorized:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Kind returns the taxonomy kind of the error.
func (e *DomainError) Kind() ErrorKind {
	return e.Code.Kind()
}

// WithContext attaches structured detail for the presentation layer.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is checks against a code.
var (
	ErrSessionNotFound    = NewError(CodeSessionNotFound, "session not found", nil)
	ErrDisciplineNotFound = NewError(CodeDisciplineNotFound, "discipline not found", nil)
	ErrTopicNotFound      = NewError(CodeTopicNotFound, "topic not found", nil)
	ErrNoMatch            = NewError(CodeNoMatch, "no questions match the criteria", nil)
	ErrNoCriteria         = NewError(CodeNoCriteria, "selection criteria are incomplete", nil)
	ErrAlreadyCompleted   = NewError(CodeAlreadyCompleted, "quiz already completed", nil)
	ErrTimeExpired        = NewError(CodeTimeExpired, "time expired", nil)
	ErrPersistence        = NewError(CodePersistence, "session persistence failed", nil)
)

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(CodeSessionNotFound, fmt.Sprintf("Session not found: %s", sessionID), nil).
		WithContext("session_id", sessionID)
}

func NewDisciplineNotFoundError(discipline string) *DomainError {
	return NewError(CodeDisciplineNotFound, fmt.Sprintf("Discipline not found: %s", discipline), nil).
		WithContext("discipline", discipline)
}

func NewTopicNotFoundError(discipline, topic string) *DomainError {
	return NewError(CodeTopicNotFound, fmt.Sprintf("Topic %q not found in discipline %q", topic, discipline), nil).
		WithContext("discipline", discipline).
		WithContext("topic", topic)
}

// NewNoMatchError reports criteria that matched zero questions; callers should broaden the criteria.
func NewNoMatchError(criteria SelectionCriteria) *DomainError {
	return NewError(CodeNoMatch, "No questions found for the selected criteria. Try another period, discipline or topic.", nil).
		WithContext("mode", string(criteria.Mode)).
		WithContext("discipline", criteria.Discipline)
}

func NewNoCriteriaError(fields ...string) *DomainError {
	return NewError(CodeNoCriteria, fmt.Sprintf("Missing selection criteria: %s", strings.Join(fields, ", ")), nil).
		WithContext("fields", fields)
}

func NewAlreadyCompletedError(sessionID string) *DomainError {
	return NewError(CodeAlreadyCompleted, "Quiz already completed", nil).WithContext("session_id", sessionID)
}

func NewTimeExpiredError(sessionID string, elapsed, budget float64) *DomainError {
	return NewError(CodeTimeExpired, "Time budget exhausted", nil).
		WithContext("session_id", sessionID).
		WithContext("elapsed_seconds", elapsed).
		WithContext("budget_seconds", budget)
}

func NewPersistenceError(sessionID string, err error) *DomainError {
	return NewError(CodePersistence, "Failed to persist session", err).WithContext("session_id", sessionID)
}

// ValidationError is a single invalid request field.
type ValidationError struct {
	Code    ErrorCode   `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field of a request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Code: CodeMissingField, Field: field, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Code: CodeInvalidFormat, Field: field, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Code:    CodeOutOfRange,
		Field:   field,
		Message: fmt.Sprintf("must be between %d and %d", min, max),
		Value:   value,
	}
}
