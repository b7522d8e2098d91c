package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-engine/internal/cache"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logger"
	"quiz-engine/internal/repository/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedSessionStore is a read-through cache in front of another SessionStore.
// The wrapped store stays the source of truth; cache failures are logged and ignored.
// Save overwrites the cached entry, while a miss only fills an absent one, so a
// read that raced with a newer Save never replaces what that Save cached.
type CachedSessionStore struct {
	store domain.SessionStore
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

var _ domain.SessionStore = (*CachedSessionStore)(nil)

func NewCachedSessionStore(store domain.SessionStore, c domain.Cache, ttl time.Duration) *CachedSessionStore {
	return &CachedSessionStore{store: store, cache: c, ttl: ttl, now: time.Now}
}

func (s *CachedSessionStore) Save(ctx context.Context, session *domain.QuizSession) error {
	if err := s.store.Save(ctx, session); err != nil {
		return err
	}
	payload, err := json.Marshal(models.FromDomainSession(session))
	if err != nil {
		s.invalidate(ctx, session.ID, err)
		return nil
	}
	if err := s.cache.Set(ctx, cache.SessionKey(session.ID), string(payload), s.ttl); err != nil {
		s.invalidate(ctx, session.ID, err)
	}
	return nil
}

// invalidate drops a possibly stale entry after a failed refresh.
func (s *CachedSessionStore) invalidate(ctx context.Context, id string, cause error) {
	logger.Get().Warn("Failed to refresh cached session",
		zap.String("session_id", id), zap.Error(cause))
	if err := s.cache.Delete(ctx, cache.SessionKey(id)); err != nil {
		logger.Get().Warn("Failed to drop cached session",
			zap.String("session_id", id), zap.Error(err))
	}
}

func (s *CachedSessionStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	key := cache.SessionKey(id)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		session, decodeErr := s.decode(cached)
		if decodeErr == nil {
			return session, nil
		}
		logger.Get().Warn("Discarding undecodable cached session",
			zap.String("session_id", id), zap.Error(decodeErr))
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Get().Warn("Failed to drop cached session",
				zap.String("session_id", id), zap.Error(err))
		}
	case !errors.Is(err, domain.ErrCacheMiss):
		logger.Get().Warn("Session cache read failed, falling back to store",
			zap.String("session_id", id), zap.Error(err))
	}

	// Concurrent misses share one store read. Each caller decodes its own copy,
	// since sessions are mutated by the caller. The shared read must outlive any
	// single caller's cancellation.
	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		fillCtx := context.WithoutCancel(ctx)
		session, err := s.store.Load(fillCtx, id)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(models.FromDomainSession(session))
		if err != nil {
			return nil, fmt.Errorf("encode session %s: %w", id, err)
		}
		if _, err := s.cache.SetNX(fillCtx, key, string(payload), s.ttl); err != nil {
			logger.Get().Warn("Failed to populate session cache",
				zap.String("session_id", id), zap.Error(err))
		}
		return string(payload), nil
	})
	if err != nil {
		return nil, err
	}
	return s.decode(v.(string))
}

func (s *CachedSessionStore) decode(payload string) (*domain.QuizSession, error) {
	var rec models.SessionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, err
	}
	return rec.ToDomainSession(s.now), nil
}
