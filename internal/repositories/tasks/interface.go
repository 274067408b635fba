// Package tasks stores task rows and performs the joint authorized lookups
// used by the envelope service. A task's details column holds a ciphertext
// token; a row is only returned together with the requesting user's wrapped
// key, so a read can never succeed without both the grant and the wrap.
package tasks

import (
	"context"

	"github.com/andrejsk/taskvault/internal/models"
)

// Repository describes operations on the tasks table.
type Repository interface {
	// Create inserts a new task row and returns its id.
	Create(ctx context.Context, task *models.Task) (int64, error)

	// GetAuthorized returns the task together with userID's wrapped key,
	// joining tasks, authorization_grants and key_wraps for the exact
	// (task, user) pair. Returns common.ErrorNotFound when the joint record
	// does not exist, without distinguishing a missing task from a missing
	// grant.
	GetAuthorized(ctx context.Context, taskID, userID int64) (*models.TaskWithWrap, error)

	// ListAuthorized returns every task userID may access, each with that
	// user's wrapped key, ordered by creation time ascending (task id
	// breaks ties).
	ListAuthorized(ctx context.Context, userID int64) ([]models.TaskWithWrap, error)

	// Update writes the changed columns of upd (details already encrypted)
	// and stamps updated_by/updated_at. Returns common.ErrorNotFound when
	// no row was affected.
	Update(ctx context.Context, taskID, updatedBy int64, upd models.TaskUpdate) error
}
