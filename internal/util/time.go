package util

import "time"

// ParseTimeOr parses an RFC3339 timestamp and falls back to fallback() for empty or legacy values.
func ParseTimeOr(raw string, fallback func() time.Time) time.Time {
	if raw != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05.999999999"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	return fallback().UTC()
}

// FormatTime renders t the way persisted records store timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
