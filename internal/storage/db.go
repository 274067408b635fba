// Package storage opens the sqlite database and applies the embedded goose
// migrations, handing back the repository bundle used by the services.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/andrejsk/taskvault/internal/migrations"
	"github.com/andrejsk/taskvault/internal/repositories/tasks"
	"github.com/andrejsk/taskvault/internal/repositories/users"
)

// Repositories bundles the database handle with the db-bound repositories.
// Services that need transactional writes use DB with dbx.WithTx and build
// tx-bound repositories themselves.
type Repositories struct {
	DB    *sql.DB
	Tasks tasks.Repository
	Users users.Repository
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the sqlite database at dsn, migrates it, and returns
// the repository bundle.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:    db,
		Tasks: tasks.NewSQLiteRepository(db),
		Users: users.NewSQLiteRepository(db),
	}, nil
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}
