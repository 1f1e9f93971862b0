package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlstore"
)

// Dialect is the MySQL flavour of the shared repositories.
var Dialect = sqlstore.Dialect{
	Name:          "mysql",
	InlineIndexes: true,
	Upsert:        sqlstore.OnDuplicateKey,
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
