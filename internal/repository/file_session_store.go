package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/repository/models"
	"quiz-engine/internal/util"
)

// session ids become file names, so anything outside this set is rejected
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// FileSessionStore keeps one JSON document per session under dir.
type FileSessionStore struct {
	dir string
	now func() time.Time
}

var _ domain.SessionStore = (*FileSessionStore)(nil)

// NewFileSessionStore creates dir if needed.
func NewFileSessionStore(dir string) (*FileSessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory %s: %w", dir, err)
	}
	return &FileSessionStore{dir: dir, now: time.Now}, nil
}

func (s *FileSessionStore) path(id string) (string, error) {
	if !sessionIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save replaces the session file atomically: readers see the old or the new document, never a mix.
func (s *FileSessionStore) Save(ctx context.Context, session *domain.QuizSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(session.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(models.FromDomainSession(session), "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return util.WriteFileAtomic(path, data, 0o644)
}

func (s *FileSessionStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(id)
	if err != nil {
		// an id that could never have been issued simply does not exist
		return nil, domain.ErrSessionRecordNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionRecordNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec.ToDomainSession(s.now), nil
}
