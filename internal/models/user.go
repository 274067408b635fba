package models

// User is a row of the users table. PasswordHash is an encoded argon2id
// hash, or a legacy plaintext value still awaiting migration.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}
