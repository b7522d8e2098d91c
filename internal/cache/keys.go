package cache

import "strings"

const (
	GlobalKeyPrefix = "quizengine"

	// SessionService and SessionObject name the cached session snapshots.
	SessionService = "session"
	SessionObject  = "state"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// SessionKey is the key of one cached session.
func SessionKey(sessionID string) string {
	return GenerateCacheKey(SessionService, SessionObject, sessionID)
}
