package keywraps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, userID, taskID int64, wrappedKey string) error {
	query := `INSERT INTO key_wraps (user_id, task_id, wrapped_key)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id, task_id) DO UPDATE SET wrapped_key = excluded.wrapped_key
	`
	_, err := r.db.ExecContext(ctx, query, userID, taskID, wrappedKey)
	if err != nil {
		return fmt.Errorf("failed to upsert key wrap: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID, taskID int64) (string, error) {
	query := `SELECT wrapped_key FROM key_wraps WHERE user_id = ? AND task_id = ?`
	var wrapped string
	err := r.db.QueryRowContext(ctx, query, userID, taskID).Scan(&wrapped)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("failed to select key wrap: %w", err)
	}
	return wrapped, nil
}
