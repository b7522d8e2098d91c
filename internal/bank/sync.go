package bank

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"quiz-engine/internal/util"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	periodDirRe  = regexp.MustCompile(`(?i)^(?:periodo|period)[_-]?(\d+)$`)
	titleCaser   = cases.Title(language.Und)
)

// NormalizeText trims, collapses internal whitespace and lowercases.
func NormalizeText(s string) string {
	return strings.ToLower(whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " "))
}

// QuestionKey identifies a record by content, ignoring formatting differences.
func QuestionKey(r Record) string {
	options := make([]string, len(r.Options))
	for i, o := range r.Options {
		options[i] = NormalizeText(o)
	}
	period := ""
	if r.Period != nil {
		period = strconv.Itoa(*r.Period)
	}
	return strings.Join([]string{
		NormalizeText(r.Text),
		strings.Join(options, "\x1f"),
		NormalizeText(r.Discipline),
		period,
	}, "\x1e")
}

// Merge appends the incoming records whose key is not already present, keeping
// existing order. Duplicates inside incoming are counted too.
func Merge(existing, incoming []Record) (merged []Record, added, duplicates int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged = make([]Record, 0, len(existing)+len(incoming))
	for _, r := range existing {
		seen[QuestionKey(r)] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range incoming {
		key := QuestionKey(r)
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
		added++
	}
	return merged, added, duplicates
}

// BankFile is a bank document as read from disk. Existing entries are kept as
// decoded, so keys Record does not model survive a rewrite and a
// {"questions": [...]} document keeps its wrapper and sibling keys.
type BankFile struct {
	Records []Record

	raws    []any
	wrapper map[string]any
}

// ReadBankFile decodes a bank file without schema validation. A missing file
// reads as an empty bare list.
func ReadBankFile(path string) (*BankFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &BankFile{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := decodeDocument(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	raws, err := extractRecords(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	encoded, err := json.Marshal(raws)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(encoded, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f := &BankFile{Records: records, raws: raws}
	if m, ok := doc.(map[string]any); ok {
		f.wrapper = m
	}
	return f, nil
}

// Append adds records after the existing entries.
func (f *BankFile) Append(records ...Record) error {
	for _, r := range records {
		encoded, err := json.Marshal(r)
		if err != nil {
			return err
		}
		var raw map[string]any
		if err := json.Unmarshal(encoded, &raw); err != nil {
			return err
		}
		f.raws = append(f.raws, raw)
		f.Records = append(f.Records, r)
	}
	return nil
}

// Write stores the document atomically, as YAML when path has a YAML extension
// and as indented JSON otherwise.
func (f *BankFile) Write(path string) error {
	raws := f.raws
	if raws == nil {
		raws = []any{}
	}
	var doc any = raws
	if f.wrapper != nil {
		f.wrapper["questions"] = raws
		doc = f.wrapper
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// round trip through plain JSON values so numbers are not emitted as strings
		var plain any
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		if data, err = yaml.Marshal(plain); err != nil {
			return err
		}
	default:
		data = append(data, '\n')
	}
	return util.WriteFileAtomic(path, data, 0o644)
}

// BackupFile copies path to <path>.backup_YYYYMMDD_HHMMSS and returns the backup
// path. Nothing is written when path does not exist.
func BackupFile(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	backup := path + ".backup_" + now.Format("20060102_150405")
	if err := util.WriteFileAtomic(backup, data, 0o644); err != nil {
		return "", err
	}
	return backup, nil
}

// CollectStagingFiles returns every .json, .yaml or .yml file under dir, sorted.
func CollectStagingFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// InferPeriod finds the nearest periodo_N / period_N directory above path.
func InferPeriod(path string) (int, bool) {
	dir := filepath.Dir(path)
	for {
		if m := periodDirRe.FindStringSubmatch(filepath.Base(dir)); m != nil {
			n, err := strconv.Atoi(m[1])
			return n, err == nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return 0, false
		}
		dir = parent
	}
}

// InferDiscipline turns a file name like "data_structures.json" into "Data Structures".
func InferDiscipline(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// StagingOptions controls how staged records missing a period or discipline are filled.
type StagingOptions struct {
	InferPeriod       bool
	InferDiscipline   bool
	DefaultPeriod     *int
	DefaultDiscipline string
}

// LoadStaging reads every file and fills in missing period/discipline values.
// Inferred values win over defaults; values in the record always win.
func LoadStaging(files []string, opts StagingOptions) ([]Record, error) {
	var out []Record
	for _, path := range files {
		f, err := ReadBankFile(path)
		if err != nil {
			return nil, err
		}
		records := f.Records
		var inferredPeriod *int
		if opts.InferPeriod {
			if p, ok := InferPeriod(path); ok {
				inferredPeriod = &p
			}
		}
		inferredDiscipline := ""
		if opts.InferDiscipline {
			inferredDiscipline = InferDiscipline(path)
		}

		for _, r := range records {
			if r.Period == nil {
				switch {
				case inferredPeriod != nil:
					p := *inferredPeriod
					r.Period = &p
				case opts.DefaultPeriod != nil:
					p := *opts.DefaultPeriod
					r.Period = &p
				}
			}
			if strings.TrimSpace(r.Discipline) == "" {
				if inferredDiscipline != "" {
					r.Discipline = inferredDiscipline
				} else {
					r.Discipline = opts.DefaultDiscipline
				}
			}
			out = append(out, r)
		}
	}
	return out, nil
}
