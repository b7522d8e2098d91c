package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID_SortableAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 1000; i++ {
		id := NewULID()
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.Greater(t, id, prev, "monotonic within the same millisecond")
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
		prev = id
	}
}

func TestParseTimeOr(t *testing.T) {
	fallback := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return fallback }

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-05-01T10:00:00.123456789Z", time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)},
		{"2024-05-01T12:00:00+02:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01 10:00:00.5", time.Date(2024, 5, 1, 10, 0, 0, 500000000, time.UTC)},
		{"2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"", fallback},
		{"yesterday", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseTimeOr(tt.raw, now)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestFormatTime_RoundTrip(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2024, 2, 29, 21, 15, 0, 42, loc)
	s := FormatTime(ts)
	assert.Equal(t, "2024-03-01T00:15:00.000000042Z", s)
	assert.True(t, ts.Equal(ParseTimeOr(s, time.Now)))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":1}`), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":2}`), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
