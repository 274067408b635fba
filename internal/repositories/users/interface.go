// Package users stores user accounts for the identity collaborator. The
// envelope core only consumes the integer user id this table hands out.
package users

import (
	"context"

	"github.com/andrejsk/taskvault/internal/models"
)

// Repository describes operations on the users table.
type Repository interface {
	// Create inserts a new user and returns its id; a duplicate username
	// yields common.ErrorUsernameTaken.
	Create(ctx context.Context, username, passwordHash string) (int64, error)

	// GetByUsername returns the user, or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdatePasswordHash replaces the stored hash (legacy record upgrade).
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}
