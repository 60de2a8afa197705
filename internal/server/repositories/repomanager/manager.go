// Package repomanager vends entry repositories for the configured database
// backend and runs its embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yearbook/internal/dbx"
	"github.com/dmitrijs2005/yearbook/internal/server/config"
	"github.com/dmitrijs2005/yearbook/internal/server/repositories/entries"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Entries(db dbx.DBTX) entries.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var sqlOpen = sql.Open

// Open connects to the database named by backend and dsn, verifies the
// connection and returns it with the matching manager.
func Open(ctx context.Context, backend, dsn string) (*sql.DB, RepositoryManager, error) {
	switch backend {
	case config.DatabasePostgres:
		db, err := sqlOpen("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db ping error: %w", err)
		}
		m, _ := NewPostgresRepositoryManager(db)
		return db, m, nil

	case config.DatabaseSQLite:
		db, err := sqlOpen("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		// One writer at a time; the change log poller queues behind it.
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db ping error: %w", err)
		}
		m, _ := NewSQLiteRepositoryManager(db)
		return db, m, nil
	}

	return nil, nil, fmt.Errorf("unknown database backend %q", backend)
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
