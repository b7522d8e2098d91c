// Package scoring computes session timing and the time-decayed points of an answer.
// All functions are pure: they depend only on the session start, the current time,
// the question index and correctness.
package scoring

import (
	"fmt"
	"math"
	"time"
)

const (
	// SecondsPerQuestion is the share of the global budget allotted to each question.
	SecondsPerQuestion = 90
	// BasePoints is awarded for every correct answer.
	BasePoints = 10
	// MaxTimeBonus is the largest bonus for a fast correct answer.
	MaxTimeBonus = 5
	// bonusStep is SecondsPerQuestion / MaxTimeBonus: one bonus point per 18 seconds left.
	bonusStep = SecondsPerQuestion / MaxTimeBonus
)

// TotalBudget returns the global time budget in seconds for n questions.
func TotalBudget(n int) float64 {
	return float64(n * SecondsPerQuestion)
}

// Elapsed returns the seconds since startedAt, clamped at zero.
func Elapsed(startedAt, now time.Time) float64 {
	return math.Max(0, now.Sub(startedAt).Seconds())
}

// Remaining returns the seconds left of the global budget, clamped at zero.
func Remaining(n int, elapsed float64) float64 {
	return math.Max(0, TotalBudget(n)-elapsed)
}

// Expired reports whether the session has run past its global budget.
func Expired(n int, elapsed float64) bool {
	return elapsed > TotalBudget(n)
}

// QuestionElapsed is the time spent since question index became current.
// Negative values only come from clock skew and are treated as zero.
func QuestionElapsed(elapsed float64, index int) float64 {
	return math.Max(0, elapsed-float64(index*SecondsPerQuestion))
}

// Points scores one answer. Wrong answers score 0; correct ones score BasePoints plus one
// point per full 18 seconds left on the question, capped at MaxTimeBonus.
func Points(correct bool, questionElapsed float64) int {
	if !correct {
		return 0
	}
	left := math.Max(0, SecondsPerQuestion-questionElapsed)
	bonus := min(MaxTimeBonus, int(math.Floor(left/bonusStep)))
	return BasePoints + bonus
}

// Score is the outcome of timing an answer submission.
type Score struct {
	Points          int
	QuestionElapsed float64
}

// ScoreAnswer times an answer to the question at index in a session of n questions.
// ok is false when the global budget is already exhausted.
func ScoreAnswer(startedAt, now time.Time, n, index int, correct bool) (score Score, elapsed float64, ok bool) {
	elapsed = Elapsed(startedAt, now)
	if Expired(n, elapsed) {
		return Score{}, elapsed, false
	}
	qe := QuestionElapsed(elapsed, index)
	return Score{Points: Points(correct, qe), QuestionElapsed: qe}, elapsed, true
}

// FormatElapsed renders a duration as MM:SS. Minutes are not wrapped into hours.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
