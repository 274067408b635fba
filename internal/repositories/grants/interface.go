// Package grants stores the authorization relation: one row per
// (user, task) pair a user may access. A grant must always be written
// together with the matching key wrap; services guarantee this by running
// both writes on one transaction.
package grants

import "context"

// Repository describes operations on the authorization_grants table.
type Repository interface {
	// Ensure idempotently records that userID may access taskID.
	Ensure(ctx context.Context, userID, taskID int64) error

	// Exists reports whether a grant exists for the pair.
	Exists(ctx context.Context, userID, taskID int64) (bool, error)
}
