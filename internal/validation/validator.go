package validation

import (
	"regexp"
	"strings"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/dto"
)

const (
	maxNameLength        = 120
	maxOptionLength      = 1000
	maxPreferenceEntries = 32
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validator provides request validation functionality
type Validator struct {
	defaultCount int
}

// NewValidator creates a validator; defaultCount applies when a request omits requested_count.
func NewValidator(defaultCount int) *Validator {
	if defaultCount <= 0 {
		defaultCount = 15
	}
	return &Validator{defaultCount: defaultCount}
}

// ValidateCreateSessionRequest checks the request shape and builds the selection criteria.
// Missing period/discipline/topic are left to the engine, which reports them as NO_CRITERIA.
// The count is clamped rather than rejected.
func (v *Validator) ValidateCreateSessionRequest(req *dto.CreateSessionRequest) (domain.SelectionCriteria, domain.ValidationErrors) {
	var errs domain.ValidationErrors

	mode := domain.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	switch mode {
	case "":
		mode = domain.ModeNormal
	case domain.ModeNormal, domain.ModeRecovery:
	default:
		errs = append(errs, domain.NewInvalidFormatError("mode", req.Mode))
	}

	if req.Period != nil && *req.Period < 1 {
		errs = append(errs, domain.NewInvalidFormatError("period", *req.Period))
	}
	discipline := strings.TrimSpace(req.Discipline)
	if len(discipline) > maxNameLength {
		errs = append(errs, domain.NewOutOfRangeError("discipline", len(discipline), 1, maxNameLength))
	}
	topic := strings.TrimSpace(req.Topic)
	if len(topic) > maxNameLength {
		errs = append(errs, domain.NewOutOfRangeError("topic", len(topic), 1, maxNameLength))
	}
	if len(req.Preferences) > maxPreferenceEntries {
		errs = append(errs, domain.NewOutOfRangeError("preferences", len(req.Preferences), 0, maxPreferenceEntries))
	}

	count := v.defaultCount
	if req.RequestedCount != nil {
		count = *req.RequestedCount
	}

	return domain.SelectionCriteria{
		Mode:           mode,
		Period:         req.Period,
		Discipline:     discipline,
		Topic:          topic,
		RequestedCount: domain.ClampCount(count),
	}, errs
}

// ValidateSessionID validates a session id path parameter
func (v *Validator) ValidateSessionID(sessionID string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(sessionID) == "" {
		errs = append(errs, domain.NewMissingFieldError("session_id"))
	} else if !sessionIDPattern.MatchString(sessionID) {
		errs = append(errs, domain.NewInvalidFormatError("session_id", sessionID))
	}
	return errs
}

// ValidateSubmitAnswerRequest accepts an empty option, which is scored as a wrong answer.
func (v *Validator) ValidateSubmitAnswerRequest(req *dto.SubmitAnswerRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if req.SubmittedOption == "" {
		errs = append(errs, domain.NewMissingFieldError("submitted_option"))
	} else if len(req.SubmittedOption) > maxOptionLength {
		errs = append(errs, domain.NewOutOfRangeError("submitted_option", len(req.SubmittedOption), 0, maxOptionLength))
	}
	return errs
}

// ValidateDiscipline validates a discipline path parameter
func (v *Validator) ValidateDiscipline(discipline string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	d := strings.TrimSpace(discipline)
	if d == "" {
		errs = append(errs, domain.NewMissingFieldError("discipline"))
	} else if len(d) > maxNameLength {
		errs = append(errs, domain.NewOutOfRangeError("discipline", len(d), 1, maxNameLength))
	}
	return errs
}
