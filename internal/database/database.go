package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quiz-engine/internal/config"
	"quiz-engine/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/sijms/go-ora/v2" // registers "oracle"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Supported values of db.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
)

// driverNames maps a configured driver to the database/sql driver it registers as.
var driverNames = map[string]string{
	DriverSQLite:   "sqlite",
	DriverPostgres: "pgx",
	DriverOracle:   "oracle",
}

// Open connects to the configured session database and verifies the connection.
func Open(cfg config.DBConfig) (*sqlx.DB, error) {
	driverName, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite allows a single writer; serialize through one connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	logger.Get().Info("Connected to session database", zap.String("driver", cfg.Driver))
	return db, nil
}

// sqliteDSN turns a plain file path into a modernc DSN with WAL and a busy timeout,
// creating the parent directory. DSNs that already carry parameters are left alone.
func sqliteDSN(dsn string) (string, error) {
	if dsn == ":memory:" || strings.Contains(dsn, "?") {
		return dsn, nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}
