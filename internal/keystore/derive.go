package keystore

import (
	"crypto/hmac"
	"crypto/sha256"
	"strconv"

	"github.com/andrejsk/taskvault/internal/common"
)

// DeriveUserKey computes the stable per-user key as
// HMAC-SHA256(master secret, decimal user id). The result is deterministic
// across calls and across processes sharing the same master secret, and
// distinct user ids yield computationally independent keys. The derived key
// is never persisted; it is recomputed on demand.
func (s *Store) DeriveUserKey(userID int64) ([]byte, error) {
	if userID <= 0 {
		return nil, common.ErrorInvalidUserID
	}

	master, err := s.LoadOrCreate()
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, master)
	mac.Write([]byte(strconv.FormatInt(userID, 10)))
	return mac.Sum(nil), nil
}
