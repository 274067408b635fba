// Package keywraps stores wrapped content keys: per (user, task) pair, the
// task's content key encrypted under that user's derived key.
package keywraps

import "context"

// Repository describes operations on the key_wraps table.
type Repository interface {
	// Upsert inserts the wrapped key for the pair, replacing any existing
	// wrap (re-granting re-issues the wrap).
	Upsert(ctx context.Context, userID, taskID int64, wrappedKey string) error

	// Get returns the wrapped key for the pair, or common.ErrorNotFound.
	Get(ctx context.Context, userID, taskID int64) (string, error)
}
