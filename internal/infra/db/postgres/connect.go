package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlstore"
)

// Dialect is the PostgreSQL flavour of the shared repositories.
var Dialect = sqlstore.Dialect{
	Name:     "postgres",
	Numbered: true,
	Upsert:   sqlstore.OnConflictID,
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
