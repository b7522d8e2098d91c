package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/logger"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Record is the on-disk shape of a bank question.
type Record struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption string   `json:"correct_option" yaml:"correct_option"`
	Discipline    string   `json:"discipline,omitempty" yaml:"discipline,omitempty"`
	Period        *int     `json:"period,omitempty" yaml:"period,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Explanation   string   `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Source        string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// ToQuestion converts a validated record into the domain type.
func (r Record) ToQuestion() domain.Question {
	return domain.Question{
		Text:          strings.TrimSpace(r.Text),
		Options:       append([]string(nil), r.Options...),
		CorrectOption: r.CorrectOption,
		CorrectIndex:  slices.Index(r.Options, r.CorrectOption),
		Discipline:    strings.TrimSpace(r.Discipline),
		Period:        r.Period,
		Difficulty:    domain.ParseDifficulty(r.Difficulty),
		Explanation:   r.Explanation,
		Source:        strings.ToLower(strings.TrimSpace(r.Source)),
	}
}

// Loader reads and validates corpus files. Records are validated here, once, and
// never again inside the engine.
type Loader struct {
	schema *jsonschema.Schema
}

func NewLoader() (*Loader, error) {
	schema, err := compileQuestionSchema()
	if err != nil {
		return nil, fmt.Errorf("question schema: %w", err)
	}
	return &Loader{schema: schema}, nil
}

// validateRecord returns the decoded record or the reason it was rejected.
func (l *Loader) validateRecord(raw any) (Record, error) {
	if err := l.schema.Validate(raw); err != nil {
		return Record{}, err
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(encoded, &rec); err != nil {
		return Record{}, err
	}
	if !slices.Contains(rec.Options, rec.CorrectOption) {
		return Record{}, errors.New("correct_option is not one of the options")
	}
	return rec, nil
}

// validateAll keeps the valid records and reports how many were skipped.
func (l *Loader) validateAll(path string, raws []any) ([]domain.Question, int) {
	questions := make([]domain.Question, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		rec, err := l.validateRecord(raw)
		if err != nil {
			skipped++
			logger.Get().Warn("Skipping invalid question record",
				zap.String("file", path),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		questions = append(questions, rec.ToQuestion())
	}
	return questions, skipped
}

// FilterValid applies the load-time checks to records that did not come from a
// corpus file, such as staged records about to be merged. Rejected records are logged.
func (l *Loader) FilterValid(source string, records []Record) ([]Record, int) {
	valid := make([]Record, 0, len(records))
	skipped := 0
	for i, r := range records {
		encoded, err := json.Marshal(r)
		if err == nil {
			var raw any
			if raw, err = jsonschema.UnmarshalJSON(bytes.NewReader(encoded)); err == nil {
				_, err = l.validateRecord(raw)
			}
		}
		if err != nil {
			skipped++
			logger.Get().Warn("Skipping invalid question record",
				zap.String("file", source),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		valid = append(valid, r)
	}
	return valid, skipped
}

// LoadCorpus reads the normal-mode corpus. A missing file yields an empty corpus.
func (l *Loader) LoadCorpus(path string) ([]domain.Question, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Get().Warn("Corpus file not found, starting with an empty corpus", zap.String("file", path))
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read corpus %s: %w", path, err)
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, 0, fmt.Errorf("corpus %s: %w", path, err)
	}
	raws, err := extractRecords(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("corpus %s: %w", path, err)
	}
	questions, skipped := l.validateAll(path, raws)
	return questions, skipped, nil
}

// LoadRecoveryFile reads one discipline -> topic -> questions file.
func (l *Loader) LoadRecoveryFile(path string) (domain.RecoveryCorpus, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read recovery file %s: %w", path, err)
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, 0, fmt.Errorf("recovery file %s: %w", path, err)
	}
	disciplines, ok := doc.(map[string]any)
	if !ok {
		return nil, 0, fmt.Errorf("recovery file %s: expected an object keyed by discipline", path)
	}

	corpus := make(domain.RecoveryCorpus, len(disciplines))
	skipped := 0
	for discipline, rawTopics := range disciplines {
		topics, ok := rawTopics.(map[string]any)
		if !ok {
			return nil, 0, fmt.Errorf("recovery file %s: discipline %q must map topics to question lists", path, discipline)
		}
		corpus[discipline] = make(map[string][]domain.Question, len(topics))
		for topic, rawList := range topics {
			list, ok := rawList.([]any)
			if !ok {
				return nil, 0, fmt.Errorf("recovery file %s: topic %q of %q must be a list", path, topic, discipline)
			}
			questions, n := l.validateAll(path, list)
			skipped += n
			for i := range questions {
				if questions[i].Discipline == "" {
					questions[i].Discipline = discipline
				}
			}
			corpus[discipline][topic] = questions
		}
	}
	return corpus, skipped, nil
}

// ExpandGlobs resolves the recovery patterns into a sorted, de-duplicated file list.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad recovery pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadRecovery reads every recovery file concurrently and merges them in path order.
// A file that fails to load is logged and left out, matching how a single bad upload
// must not take down the rest of the recovery bank.
func (l *Loader) LoadRecovery(ctx context.Context, files []string) (domain.RecoveryCorpus, int, error) {
	type result struct {
		corpus  domain.RecoveryCorpus
		skipped int
	}
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			corpus, skipped, err := l.LoadRecoveryFile(path)
			if err != nil {
				logger.Get().Error("Failed to load recovery file", zap.String("file", path), zap.Error(err))
				return nil
			}
			results[i] = result{corpus: corpus, skipped: skipped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	merged := make(domain.RecoveryCorpus)
	skipped := 0
	for _, r := range results {
		skipped += r.skipped
		mergeRecovery(merged, r.corpus)
	}
	return merged, skipped, nil
}

func mergeRecovery(dst, src domain.RecoveryCorpus) {
	for discipline, topics := range src {
		if dst[discipline] == nil {
			dst[discipline] = make(map[string][]domain.Question, len(topics))
		}
		for topic, questions := range topics {
			dst[discipline][topic] = append(dst[discipline][topic], questions...)
		}
	}
}
