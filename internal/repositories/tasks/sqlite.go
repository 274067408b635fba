package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/dbx"
	"github.com/andrejsk/taskvault/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, task *models.Task) (int64, error) {
	query := `INSERT INTO tasks (title, details, created_by, updated_by, is_complete)
			VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Details, task.CreatedBy, task.UpdatedBy, task.IsComplete)
	if err != nil {
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get task id: %w", err)
	}
	return id, nil
}

const authorizedColumns = `t.task_id, t.title, t.details, t.created_by, t.updated_by,
		t.created_at, t.updated_at, t.is_complete, kw.wrapped_key`

const authorizedJoin = `FROM tasks t
		JOIN authorization_grants g ON g.task_id = t.task_id
		JOIN key_wraps kw ON kw.task_id = t.task_id AND kw.user_id = g.user_id`

func scanTaskWithWrap(scan func(dest ...any) error) (*models.TaskWithWrap, error) {
	item := &models.TaskWithWrap{}
	err := scan(&item.ID, &item.Title, &item.Details, &item.CreatedBy, &item.UpdatedBy,
		&item.CreatedAt, &item.UpdatedAt, &item.IsComplete, &item.WrappedKey)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *SQLiteRepository) GetAuthorized(ctx context.Context, taskID, userID int64) (*models.TaskWithWrap, error) {
	query := `SELECT ` + authorizedColumns + ` ` + authorizedJoin + `
		WHERE t.task_id = ? AND g.user_id = ?`
	row := r.db.QueryRowContext(ctx, query, taskID, userID)

	item, err := scanTaskWithWrap(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) ListAuthorized(ctx context.Context, userID int64) ([]models.TaskWithWrap, error) {
	query := `SELECT ` + authorizedColumns + ` ` + authorizedJoin + `
		WHERE g.user_id = ?
		ORDER BY t.created_at ASC, t.task_id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	var result []models.TaskWithWrap
	for rows.Next() {
		item, err := scanTaskWithWrap(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, taskID, updatedBy int64, upd models.TaskUpdate) error {
	if upd.Empty() {
		return common.ErrorNoUpdates
	}

	sets := make([]string, 0, 5)
	params := make([]any, 0, 6)

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		params = append(params, *upd.Title)
	}
	if upd.Details != nil {
		sets = append(sets, "details = ?")
		params = append(params, *upd.Details)
	}
	if upd.IsComplete != nil {
		sets = append(sets, "is_complete = ?")
		params = append(params, *upd.IsComplete)
	}
	sets = append(sets, "updated_by = ?", "updated_at = CURRENT_TIMESTAMP")
	params = append(params, updatedBy, taskID)

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE task_id = ?`
	res, err := r.db.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
