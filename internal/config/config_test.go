package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overrideVars = []string{
	"SERVER_PORT", "LOG_LEVEL", "ENV", "BANK_CORPUS_PATH", "SESSION_STORE", "SESSION_DIR",
	"DB_DRIVER", "DB_DSN", "REDIS_ADDRESS", "REDIS_PASSWORD", "ADMIN_JWT_SECRET",
}

// isolate runs the test in an empty directory with no override variables set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, name := range overrideVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "data/questions.json", cfg.Bank.CorpusPath)
	assert.Equal(t, []string{"data/recovery_questions*.json", "data/RECOVERY_*.json"}, cfg.Bank.RecoveryGlobs)
	assert.Equal(t, "file", cfg.Session.Store)
	assert.Equal(t, 6*time.Hour, cfg.Session.CacheTTL)
	assert.Equal(t, 15, cfg.Session.DefaultCount)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Empty(t, cfg.Redis.Address)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, filepath.Join("database", "migrations", "sqlite"), cfg.MigrationsPath())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("SESSION_STORE", "sql")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://quiz@localhost/quiz")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sql", cfg.Session.Store)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://quiz@localhost/quiz", cfg.DB.DSN)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, filepath.Join("database", "migrations", "postgres"), cfg.MigrationsPath())
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
server:
  port: 7000
bank:
  corpus_path: /srv/bank/questions.yaml
  recovery_globs: ["/srv/bank/recovery/*.yaml"]
session:
  default_count: 20
  cache_ttl: 60
`), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/srv/bank/questions.yaml", cfg.Bank.CorpusPath)
	assert.Equal(t, []string{"/srv/bank/recovery/*.yaml"}, cfg.Bank.RecoveryGlobs)
	assert.Equal(t, 20, cfg.Session.DefaultCount)
	assert.Equal(t, time.Minute, cfg.Session.CacheTTL)
	assert.Equal(t, "file", cfg.Session.Store, "unset keys keep their defaults")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig()
	assert.Error(t, err)
}
