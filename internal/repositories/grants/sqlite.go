package grants

import (
	"context"
	"fmt"

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

func (r *SQLiteRepository) Ensure(ctx context.Context, userID, taskID int64) error {
	query := `INSERT OR IGNORE INTO authorization_grants (user_id, task_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, userID, taskID)
	if err != nil {
		return fmt.Errorf("failed to ensure grant: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, userID, taskID int64) (bool, error) {
	query := `SELECT count(*) FROM authorization_grants WHERE user_id = ? AND task_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, taskID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check grant: %w", err)
	}
	return n > 0, nil
}
