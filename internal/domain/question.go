package domain

import "strings"

// Difficulty is the authored difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a raw value to a Difficulty, defaulting to medium.
func ParseDifficulty(raw string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// SourceInstructor marks questions authored from instructor-provided material.
const SourceInstructor = "instructor"

// Question is a validated multiple-choice record from the bank. ID is assigned when the
// question is selected into a session and is unique within it. CorrectIndex is the
// position of CorrectOption after the options were shuffled.
type Question struct {
	ID            string     `json:"id,omitempty"`
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectOption string     `json:"correct_option"`
	CorrectIndex  int        `json:"correct_index"`
	Discipline    string     `json:"discipline"`
	Period        *int       `json:"period,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	Explanation   string     `json:"explanation,omitempty"`
	Source        string     `json:"source,omitempty"`
}

// IsInstructorSourced reports whether the question gets preferential weighting.
func (q Question) IsInstructorSourced() bool {
	return strings.EqualFold(q.Source, SourceInstructor)
}

// Clone returns a deep copy so sessions never share option slices with the live corpus.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]string(nil), q.Options...)
	if q.Period != nil {
		p := *q.Period
		c.Period = &p
	}
	return c
}

// RecoveryCorpus is the topic-organized bank: discipline -> topic -> questions.
type RecoveryCorpus map[string]map[string][]Question

// BankSnapshot is an immutable view of the corpus at one point in time.
type BankSnapshot interface {
	Corpus() []Question
	Recovery() RecoveryCorpus
}

// QuestionBankProvider supplies the current snapshot. Reloads replace the snapshot wholesale.
type QuestionBankProvider interface {
	Snapshot() BankSnapshot
}
