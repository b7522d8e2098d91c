package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/repository/models"
	"quiz-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

// Dialect names accepted by NewSQLSessionStore. They match config db.driver values.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectOracle   = "oracle"
)

type sessionQueries struct {
	upsert string
	get    string
}

// Every dialect gets its own statements: sqlx cannot rebind for go-ora, and the
// upsert syntax differs anyway.
var dialectQueries = map[string]sessionQueries{
	DialectSQLite: {
		upsert: `INSERT INTO quiz_sessions (id, mode, payload, started_at, finished_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		mode = excluded.mode,
		payload = excluded.payload,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		updated_at = excluded.updated_at`,
		get: `SELECT id "ID", mode "MODE", payload "PAYLOAD", started_at "STARTED_AT",
		finished_at "FINISHED_AT", updated_at "UPDATED_AT"
	FROM quiz_sessions WHERE id = ?`,
	},
	DialectPostgres: {
		upsert: `INSERT INTO quiz_sessions (id, mode, payload, started_at, finished_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		mode = EXCLUDED.mode,
		payload = EXCLUDED.payload,
		started_at = EXCLUDED.started_at,
		finished_at = EXCLUDED.finished_at,
		updated_at = EXCLUDED.updated_at`,
		get: `SELECT id "ID", mode "MODE", payload "PAYLOAD", started_at "STARTED_AT",
		finished_at "FINISHED_AT", updated_at "UPDATED_AT"
	FROM quiz_sessions WHERE id = $1`,
	},
	DialectOracle: {
		upsert: `MERGE INTO quiz_sessions t
	USING (SELECT :1 AS id, :2 AS mode, :3 AS payload, :4 AS started_at, :5 AS finished_at, :6 AS updated_at FROM dual) s
	ON (t.id = s.id)
	WHEN MATCHED THEN UPDATE SET
		t.mode = s.mode,
		t.payload = s.payload,
		t.started_at = s.started_at,
		t.finished_at = s.finished_at,
		t.updated_at = s.updated_at
	WHEN NOT MATCHED THEN INSERT (id, mode, payload, started_at, finished_at, updated_at)
		VALUES (s.id, s.mode, s.payload, s.started_at, s.finished_at, s.updated_at)`,
		get: `SELECT id "ID", mode "MODE", payload "PAYLOAD", started_at "STARTED_AT",
		finished_at "FINISHED_AT", updated_at "UPDATED_AT"
	FROM quiz_sessions WHERE id = :1`,
	},
}

// SQLSessionStore persists sessions in the quiz_sessions table. Each Save is a single
// upsert statement, so a record is always either the old or the new version.
type SQLSessionStore struct {
	db      *sqlx.DB
	queries sessionQueries
	now     func() time.Time
}

var _ domain.SessionStore = (*SQLSessionStore)(nil)

func NewSQLSessionStore(db *sqlx.DB, dialect string) (*SQLSessionStore, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported session store dialect %q", dialect)
	}
	return &SQLSessionStore{db: db, queries: q, now: time.Now}, nil
}

func (s *SQLSessionStore) Save(ctx context.Context, session *domain.QuizSession) error {
	rec := models.FromDomainSession(session)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	row := models.SessionRow{
		ID:         rec.ID,
		Mode:       string(rec.Mode),
		Payload:    string(payload),
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		UpdatedAt:  util.FormatTime(s.now()),
	}

	_, err = s.db.ExecContext(ctx, s.queries.upsert,
		row.ID, row.Mode, row.Payload, row.StartedAt, row.FinishedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SQLSessionStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	var row models.SessionRow
	if err := s.db.GetContext(ctx, &row, s.queries.get, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionRecordNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var rec models.SessionRecord
	if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec.ToDomainSession(s.now), nil
}
