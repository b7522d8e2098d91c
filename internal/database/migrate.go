package database

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"quiz-engine/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// createMigrationsTable is idempotent for every driver. Oracle has no IF NOT EXISTS,
// so ORA-00955 (name already used) is swallowed instead.
var createMigrationsTable = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
)`,
	DriverPostgres: `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
)`,
	DriverOracle: `BEGIN
	EXECUTE IMMEDIATE 'CREATE TABLE schema_migrations (version VARCHAR2(255) PRIMARY KEY, applied_at VARCHAR2(64) NOT NULL)';
EXCEPTION
	WHEN OTHERS THEN
		IF SQLCODE != -955 THEN
			RAISE;
		END IF;
END;`,
}

var insertMigration = map[string]string{
	DriverSQLite:   `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
	DriverPostgres: `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
	DriverOracle:   `INSERT INTO schema_migrations (version, applied_at) VALUES (:1, :2)`,
}

// RunMigrations applies every *.up.sql file in dir, in file name order, that is not yet
// recorded in schema_migrations. It returns the names of the files it applied.
func RunMigrations(db *sqlx.DB, driver, dir string) ([]string, error) {
	create, ok := createMigrationsTable[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if _, err := db.Exec(create); err != nil {
		return nil, fmt.Errorf("could not create schema_migrations: %w", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return nil, err
	}

	var applied []string
	if err := db.Select(&applied, `SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("could not read applied migrations: %w", err)
	}
	done := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	var ran []string
	for _, name := range files {
		if _, ok := done[name]; ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return ran, fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		for _, stmt := range SplitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return ran, fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		if _, err := db.Exec(insertMigration[driver], name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return ran, fmt.Errorf("could not record migration %s: %w", name, err)
		}
		logger.Get().Info("Executed migration", zap.String("file", name))
		ran = append(ran, name)
	}

	logger.Get().Info("Migrations completed",
		zap.String("dir", dir),
		zap.Int("applied", len(ran)),
		zap.Int("already_applied", len(files)-len(ran)))
	return ran, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// SplitStatements splits a migration script on lines ending with ';'. The terminator is
// dropped because go-ora rejects it. Lines starting with "--" are skipped.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	scanner := bufio.NewScanner(strings.NewReader(script))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			current.WriteString(strings.TrimSuffix(strings.TrimRight(line, " \t"), ";"))
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
