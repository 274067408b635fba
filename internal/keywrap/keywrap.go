// Package keywrap encrypts a task's content key individually for each
// authorized user and keeps the authorization relation in lockstep with the
// wrap records.
//
// A grant without a matching wrap is a read failure; a wrap without a grant
// is dead data. Grant therefore performs both writes on the transaction the
// caller supplies, so the pair commits or rolls back as one unit.
package keywrap

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/cryptox"
	"github.com/andrejsk/taskvault/internal/dbx"
	"github.com/andrejsk/taskvault/internal/keystore"
	"github.com/andrejsk/taskvault/internal/repositories/grants"
	"github.com/andrejsk/taskvault/internal/repositories/keywraps"
)

// Manager wraps and unwraps content keys for users.
type Manager struct {
	keys *keystore.Store
}

// NewManager returns a Manager deriving user keys from the given store.
func NewManager(keys *keystore.Store) *Manager {
	return &Manager{keys: keys}
}

// WrapForUser encrypts contentKey under userID's derived key and returns
// the wrap token for storage. The raw key bytes are base64-encoded before
// sealing so the cipher's text contract holds.
func (m *Manager) WrapForUser(userID int64, contentKey []byte) (string, error) {
	if len(contentKey) == 0 {
		return "", common.ErrorInvalidKey
	}
	userKey, err := m.keys.DeriveUserKey(userID)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(userKey)

	payload := base64.URLEncoding.EncodeToString(contentKey)
	token, err := cryptox.Encrypt(payload, userKey)
	if err != nil {
		return "", fmt.Errorf("wrapping key for user %d: %w", userID, err)
	}
	return token, nil
}

// UnwrapForUser decrypts a wrap token with userID's derived key and returns
// the raw content key. A failed authentication tag means the token was not
// wrapped for this user (or was tampered with) and yields
// common.ErrorAccessDenied; this is what cryptographically stops a wrong
// user from recovering the content key even if they obtain the token.
func (m *Manager) UnwrapForUser(userID int64, token string) ([]byte, error) {
	userKey, err := m.keys.DeriveUserKey(userID)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(userKey)

	payload, err := cryptox.Decrypt(token, userKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorAccessDenied, err)
	}
	contentKey, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed key payload", common.ErrorAccessDenied)
	}
	return contentKey, nil
}

// Grant idempotently ensures the authorization grant for (userID, taskID)
// and writes a fresh wrap of contentKey for that pair, replacing any
// previous wrap. Both writes run on tx; callers own the commit.
func (m *Manager) Grant(ctx context.Context, tx dbx.DBTX, userID, taskID int64, contentKey []byte) error {
	wrapped, err := m.WrapForUser(userID, contentKey)
	if err != nil {
		return err
	}

	if err := grants.NewSQLiteRepository(tx).Ensure(ctx, userID, taskID); err != nil {
		return err
	}
	if err := keywraps.NewSQLiteRepository(tx).Upsert(ctx, userID, taskID, wrapped); err != nil {
		return err
	}
	return nil
}
