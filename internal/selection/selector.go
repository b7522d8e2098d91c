// Package selection draws questions for a new session and randomizes their options.
package selection

import (
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"quiz-engine/internal/domain"

	"github.com/google/uuid"
)

// InstructorShare is the target fraction of instructor-sourced questions in a normal-mode draw.
const InstructorShare = 0.7

// Selector filters a bank snapshot by criteria and applies weighted sampling.
// It is safe for concurrent use.
type Selector struct {
	mu    sync.Mutex
	rng   *rand.Rand
	newID func() string
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand makes draws reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

// WithIDGenerator overrides how session-local question ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Selector) { s.newID = fn }
}

func NewSelector(opts ...Option) *Selector {
	now := uint64(time.Now().UnixNano())
	s := &Selector{
		rng:   rand.New(rand.NewPCG(now, now>>1|1)),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the ordered questions for a new session. Every returned question is a copy
// carrying a fresh session-local ID, with options shuffled and CorrectIndex recomputed.
func (s *Selector) Select(snapshot domain.BankSnapshot, criteria domain.SelectionCriteria) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := domain.ClampCount(criteria.RequestedCount)

	var selected []domain.Question
	switch criteria.Mode {
	case domain.ModeRecovery:
		pool, err := RecoveryPool(snapshot.Recovery(), criteria.Discipline, criteria.Topic)
		if err != nil {
			return nil, err
		}
		selected = s.takeShuffled(pool, count)
	case domain.ModeNormal, "":
		if criteria.Period == nil || strings.TrimSpace(criteria.Discipline) == "" {
			return nil, missingNormalCriteria(criteria)
		}
		selected = s.selectNormal(FilterCorpus(snapshot.Corpus(), *criteria.Period, criteria.Discipline), count)
	default:
		return nil, domain.NewInvalidInputError("unknown mode: " + string(criteria.Mode))
	}

	if len(selected) == 0 {
		return nil, domain.NewNoMatchError(criteria)
	}

	out := make([]domain.Question, len(selected))
	for i, q := range selected {
		out[i] = q.Clone()
		out[i].ID = s.newID()
	}
	shuffleOptions(s.rng, out)
	return out, nil
}

func missingNormalCriteria(criteria domain.SelectionCriteria) error {
	var fields []string
	if criteria.Period == nil {
		fields = append(fields, "period")
	}
	if strings.TrimSpace(criteria.Discipline) == "" {
		fields = append(fields, "discipline")
	}
	return domain.NewNoCriteriaError(fields...)
}

// FilterCorpus keeps questions of the given period whose discipline matches case-insensitively.
func FilterCorpus(corpus []domain.Question, period int, discipline string) []domain.Question {
	var filtered []domain.Question
	for _, q := range corpus {
		if q.Period == nil || *q.Period != period {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(q.Discipline), strings.TrimSpace(discipline)) {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}

// Partition splits questions into instructor-sourced and official subsets, preserving order.
func Partition(questions []domain.Question) (instructor, official []domain.Question) {
	for _, q := range questions {
		if q.IsInstructorSourced() {
			instructor = append(instructor, q)
		} else {
			official = append(official, q)
		}
	}
	return instructor, official
}

// SplitCounts computes the 70/30 draw. The instructor target is floor(requested*0.7), each
// target is clamped to what is available, and any shortfall goes to the instructor subset first
// and then to the official subset.
func SplitCounts(requested, instructorAvailable, officialAvailable int) (instructor, official int) {
	instructor = requested * 7 / 10
	official = requested - instructor

	instructor = min(instructor, instructorAvailable)
	official = min(official, officialAvailable)

	if shortfall := requested - instructor - official; shortfall > 0 {
		extra := min(shortfall, instructorAvailable-instructor)
		instructor += extra
		shortfall -= extra
		official += min(shortfall, officialAvailable-official)
	}
	return instructor, official
}

func (s *Selector) selectNormal(filtered []domain.Question, count int) []domain.Question {
	instructor, official := Partition(filtered)
	if len(instructor) == 0 {
		return s.takeShuffled(official, count)
	}

	nInstructor, nOfficial := SplitCounts(count, len(instructor), len(official))
	selected := make([]domain.Question, 0, nInstructor+nOfficial)
	selected = append(selected, s.takeShuffled(instructor, nInstructor)...)
	selected = append(selected, s.takeShuffled(official, nOfficial)...)
	// the concatenation is instructor-first; reshuffle to drop positional bias
	s.rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	return selected
}

// takeShuffled shuffles a copy of pool and truncates it to n without padding.
func (s *Selector) takeShuffled(pool []domain.Question, n int) []domain.Question {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	cp := append([]domain.Question(nil), pool...)
	s.rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	if n < len(cp) {
		cp = cp[:n]
	}
	return cp
}

// RecoveryPool returns the candidate pool for a recovery session before shuffling.
// The AllTopics sentinel flattens every topic of the discipline, in topic-name order.
func RecoveryPool(recovery domain.RecoveryCorpus, discipline, topic string) ([]domain.Question, error) {
	if strings.TrimSpace(discipline) == "" || strings.TrimSpace(topic) == "" {
		var fields []string
		if strings.TrimSpace(discipline) == "" {
			fields = append(fields, "discipline")
		}
		if strings.TrimSpace(topic) == "" {
			fields = append(fields, "topic")
		}
		return nil, domain.NewNoCriteriaError(fields...)
	}

	topics, ok := lookupDiscipline(recovery, discipline)
	if !ok {
		return nil, domain.NewDisciplineNotFoundError(discipline)
	}

	if strings.EqualFold(strings.TrimSpace(topic), domain.AllTopics) {
		names := make([]string, 0, len(topics))
		for name := range topics {
			names = append(names, name)
		}
		sort.Strings(names)
		var pool []domain.Question
		for _, name := range names {
			pool = append(pool, topics[name]...)
		}
		return pool, nil
	}

	questions, ok := topics[topic]
	if !ok {
		return nil, domain.NewTopicNotFoundError(discipline, topic)
	}
	return append([]domain.Question(nil), questions...), nil
}

// lookupDiscipline prefers an exact key and falls back to a case-insensitive match.
func lookupDiscipline(recovery domain.RecoveryCorpus, discipline string) (map[string][]domain.Question, bool) {
	if topics, ok := recovery[discipline]; ok {
		return topics, true
	}
	for name, topics := range recovery {
		if strings.EqualFold(name, discipline) {
			return topics, true
		}
	}
	return nil, false
}
