package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"quiz-engine/internal/bank"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/selection"
)

var testStart = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

// fakeClock is a settable clock shared by the service under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: testStart} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore keeps encoded copies so callers never share session memory, like a real store.
type memStore struct {
	mu       sync.Mutex
	records  map[string][]byte
	saves    int
	SaveFunc func(s *domain.QuizSession) error // optional failure injection
}

func newMemStore() *memStore { return &memStore{records: make(map[string][]byte)} }

func (m *memStore) Save(_ context.Context, s *domain.QuizSession) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(s); err != nil {
			return err
		}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[s.ID] = data
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context, id string) (*domain.QuizSession, error) {
	m.mu.Lock()
	data, ok := m.records[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionRecordNotFound
	}
	var s domain.QuizSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func intPtr(n int) *int { return &n }

func makeQuestion(text, discipline string, period *int, source string) domain.Question {
	return domain.Question{
		Text:          text,
		Options:       []string{text + " / right", text + " / wrong 1", text + " / wrong 2", text + " / wrong 3"},
		CorrectOption: text + " / right",
		Discipline:    discipline,
		Period:        period,
		Difficulty:    domain.DifficultyMedium,
		Explanation:   "because " + text,
		Source:        source,
	}
}

// geneticsCorpus holds 3 instructor and 5 official questions for period 2 Genetics,
// plus noise in other periods and disciplines.
func geneticsCorpus() []domain.Question {
	var corpus []domain.Question
	for i := 0; i < 3; i++ {
		corpus = append(corpus, makeQuestion(fmt.Sprintf("genetics instructor %d", i), "Genetics", intPtr(2), domain.SourceInstructor))
	}
	for i := 0; i < 5; i++ {
		corpus = append(corpus, makeQuestion(fmt.Sprintf("genetics official %d", i), "Genetics", intPtr(2), ""))
	}
	corpus = append(corpus,
		makeQuestion("genetics period 1", "Genetics", intPtr(1), domain.SourceInstructor),
		makeQuestion("anatomy period 2", "Anatomy", intPtr(2), ""),
	)
	return corpus
}

// recoveryCorpus has three Biochemistry topics of 4, 5 and 6 questions.
func recoveryCorpus() domain.RecoveryCorpus {
	topics := map[string]int{"Enzymes": 4, "Metabolism": 5, "Proteins": 6}
	rc := domain.RecoveryCorpus{"Biochemistry": {}}
	for topic, n := range topics {
		for i := 0; i < n; i++ {
			rc["Biochemistry"][topic] = append(rc["Biochemistry"][topic],
				makeQuestion(fmt.Sprintf("%s %d", topic, i), "Biochemistry", nil, ""))
		}
	}
	return rc
}

type testEngine struct {
	svc   SessionService
	store *memStore
	clock *fakeClock
}

func newTestEngine(seed uint64) *testEngine {
	clock := newFakeClock()
	store := newMemStore()
	b := bank.NewStatic(geneticsCorpus(), recoveryCorpus())
	sel := selection.NewSelector(selection.WithRand(rand.New(rand.NewPCG(seed, seed+1))))
	svc := NewSessionService(b, sel, store, WithClock(clock.Now))
	return &testEngine{svc: svc, store: store, clock: clock}
}

func geneticsCriteria(count int) domain.SelectionCriteria {
	return domain.SelectionCriteria{
		Mode:           domain.ModeNormal,
		Period:         intPtr(2),
		Discipline:     "genetics",
		RequestedCount: count,
	}
}
