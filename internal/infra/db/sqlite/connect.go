package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlstore"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

// Dialect is the SQLite flavour of the shared repositories.
var Dialect = sqlstore.Dialect{
	Name:       "sqlite",
	LikeEscape: ` ESCAPE '\'`,
	Upsert:     sqlstore.OnConflictID,
}

// Connect opens the database file at path, creating its directory.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
