package bank

import (
	"sort"
	"strings"
	"unicode/utf8"

	"quiz-engine/internal/domain"
)

// PeriodCatalog lists the disciplines offered in one period of the normal corpus.
type PeriodCatalog struct {
	Period      int      `json:"period"`
	Disciplines []string `json:"disciplines"`
}

// PeriodDisciplines groups the corpus disciplines by period, both sorted.
// Questions without a period are not offered for normal sessions and are left out.
func (s *Snapshot) PeriodDisciplines() []PeriodCatalog {
	byPeriod := make(map[int]map[string]struct{})
	for _, q := range s.corpus {
		if q.Period == nil || q.Discipline == "" {
			continue
		}
		if byPeriod[*q.Period] == nil {
			byPeriod[*q.Period] = make(map[string]struct{})
		}
		byPeriod[*q.Period][q.Discipline] = struct{}{}
	}

	out := make([]PeriodCatalog, 0, len(byPeriod))
	for period, set := range byPeriod {
		out = append(out, PeriodCatalog{Period: period, Disciplines: sortedKeys(set)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// RecoveryDisciplines returns the recovery disciplines in sorted order.
func (s *Snapshot) RecoveryDisciplines() []string {
	set := make(map[string]struct{}, len(s.recovery))
	for d := range s.recovery {
		set[d] = struct{}{}
	}
	return sortedKeys(set)
}

// TopicSummary is one recovery topic and its question count.
type TopicSummary struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

// RecoveryTopics lists the topics of a recovery discipline, matched case-insensitively.
func (s *Snapshot) RecoveryTopics(discipline string) ([]TopicSummary, error) {
	topics, ok := s.recovery[discipline]
	if !ok {
		for name, t := range s.recovery {
			if strings.EqualFold(name, discipline) {
				topics, ok = t, true
				break
			}
		}
	}
	if !ok {
		return nil, domain.NewDisciplineNotFoundError(discipline)
	}

	out := make([]TopicSummary, 0, len(topics))
	for name, qs := range topics {
		out = append(out, TopicSummary{Name: name, QuestionCount: len(qs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Stats summarizes a snapshot for the admin endpoint.
type Stats struct {
	CorpusQuestions     int            `json:"corpus_questions"`
	InstructorQuestions int            `json:"instructor_questions"`
	OfficialQuestions   int            `json:"official_questions"`
	ByDiscipline        map[string]int `json:"by_discipline"`
	ByDifficulty        map[string]int `json:"by_difficulty"`
	WithoutExplanation  int            `json:"without_explanation"`
	LongestTextLength   int            `json:"longest_text_length"`
	ShortestTextLength  int            `json:"shortest_text_length"`

	RecoveryQuestions int                       `json:"recovery_questions"`
	RecoveryTopics    int                       `json:"recovery_topics"`
	RecoveryByTopic   map[string]map[string]int `json:"recovery_by_topic"`

	SkippedRecords int    `json:"skipped_records"`
	LoadedAt       string `json:"loaded_at"`
}

func (s *Snapshot) Stats() Stats {
	st := Stats{
		CorpusQuestions: len(s.corpus),
		ByDiscipline:    make(map[string]int),
		ByDifficulty:    make(map[string]int),
		RecoveryByTopic: make(map[string]map[string]int),
		SkippedRecords:  s.Skipped,
		LoadedAt:        s.LoadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, q := range s.corpus {
		if q.IsInstructorSourced() {
			st.InstructorQuestions++
		} else {
			st.OfficialQuestions++
		}
		st.ByDiscipline[q.Discipline]++
		st.ByDifficulty[string(q.Difficulty)]++
		if q.Explanation == "" {
			st.WithoutExplanation++
		}
		n := utf8.RuneCountInString(q.Text)
		st.LongestTextLength = max(st.LongestTextLength, n)
		if st.ShortestTextLength == 0 || n < st.ShortestTextLength {
			st.ShortestTextLength = n
		}
	}
	for discipline, topics := range s.recovery {
		st.RecoveryTopics += len(topics)
		perTopic := make(map[string]int, len(topics))
		for name, qs := range topics {
			st.RecoveryQuestions += len(qs)
			perTopic[name] = len(qs)
		}
		st.RecoveryByTopic[discipline] = perTopic
	}
	return st
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
