package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/forPelevin/hookscan/internal/apperr"
)

const schema = `
CREATE TABLE IF NOT EXISTS video_analyses (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    video_url TEXT NOT NULL,
    transcript TEXT,
    hook TEXT,
    script_base TEXT,
    video_title TEXT,
    video_duration INTEGER,
    platform TEXT,
    metadata TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_video_analyses_user_created ON video_analyses(user_id, created_at);

CREATE TABLE IF NOT EXISTS viral_hooks (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    idea_input TEXT NOT NULL,
    hook_text TEXT NOT NULL,
    hook_type TEXT,
    retention_score REAL,
    niche TEXT,
    metadata TEXT,
    notes TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_viral_hooks_user_created ON viral_hooks(user_id, created_at)
`

// InitDB opens the database at dbPath, creating its directory, and applies
// pragmas and schema.
func InitDB(dbPath string) (*sql.DB, error) {
	const op = "sqlite.InitDB"

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, apperr.Internal(op, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, apperr.Internal(op, err, "failed to open database")
	}
	// sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func configurePragmas(db *sql.DB) error {
	const op = "sqlite.configurePragmas"

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return apperr.Internal(op, err, fmt.Sprintf("failed to set pragma: %s", pragma))
		}
	}
	return nil
}

func execSchema(db *sql.DB) error {
	const op = "sqlite.execSchema"

	tx, err := db.Begin()
	if err != nil {
		return apperr.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return apperr.Internal(op, errors.Wrapf(err, "exec %q", firstLine(stmt)), "failed to apply schema")
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(op, err, "failed to commit schema transaction")
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func isLockError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy"))
}
