// Package common defines shared constants and sentinel errors used across
// the TaskVault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors: malformed caller input, rejected before any write.
	ErrorValidation = errors.New("validation error")
	ErrorNoUpdates  = errors.New("no updates provided")

	// Authorization errors.
	ErrorNotAuthorized = errors.New("user does not have access to this task")
	ErrorAccessDenied  = errors.New("encrypted key cannot be decrypted for this user")

	// Crypto errors.
	ErrorInvalidKey    = errors.New("invalid encryption key")
	ErrorDecryption    = errors.New("ciphertext cannot be decrypted with the supplied key")
	ErrorInvalidUserID = errors.New("user id is required to derive a user key")

	// ErrorCorruptKeyStore is fatal at startup scope: the persisted master
	// secret exists but cannot be decoded. Generating a replacement here
	// would orphan every wrapped key, so callers must halt instead.
	ErrorCorruptKeyStore = errors.New("master key store is corrupt")

	// Auth-specific errors.
	ErrorUsernameTaken      = errors.New("username already exists")
	ErrorInvalidCredentials = errors.New("invalid username or password")
)
