package services

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/logging"
	"github.com/andrejsk/taskvault/internal/models"
	"github.com/andrejsk/taskvault/internal/repositories/users"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6

	hashPrefix = "argon2id"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AuthService registers and authenticates users. The envelope core consumes
// only the user id it hands out.
//
// Passwords are hashed with argon2id. Historical records stored in
// plaintext are still accepted and upgraded in place on login when
// legacyMigration is enabled; that path exists to migrate old databases and
// should be switched off once all records carry hashes.
type AuthService struct {
	users           users.Repository
	legacyMigration bool
	log             logging.Logger
}

func NewAuthService(repo users.Repository, legacyMigration bool, log logging.Logger) *AuthService {
	return &AuthService{users: repo, legacyMigration: legacyMigration, log: log}
}

// Register creates a new account and returns its user id.
func (s *AuthService) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if len(password) < minPasswordLen {
		return 0, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLen)
	}

	id, err := s.users.Create(ctx, username, hashPassword(password))
	if err != nil {
		return 0, err
	}

	s.log.Info(ctx, "user registered", "user_id", id, "username", username)
	return id, nil
}

// Login authenticates username/password and returns the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", common.ErrorValidation)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, err
	}

	if verifyPassword(user.PasswordHash, password) {
		return user, nil
	}

	// Legacy plaintext record: accept once and upgrade to argon2id.
	if s.legacyMigration && !strings.HasPrefix(user.PasswordHash, hashPrefix+"$") &&
		subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(password)) == 1 {
		if err := s.users.UpdatePasswordHash(ctx, user.ID, hashPassword(password)); err != nil {
			return nil, err
		}
		s.log.Warn(ctx, "upgraded legacy plaintext credential", "user_id", user.ID)
		return user, nil
	}

	return nil, common.ErrorInvalidCredentials
}

func validateUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username cannot be empty", common.ErrorValidation)
	case len(username) < minUsernameLen:
		return fmt.Errorf("%w: username must be at least %d characters", common.ErrorValidation, minUsernameLen)
	case len(username) > maxUsernameLen:
		return fmt.Errorf("%w: username too long (max %d characters)", common.ErrorValidation, maxUsernameLen)
	case !usernamePattern.MatchString(username):
		return fmt.Errorf("%w: username can only contain letters, numbers, and underscores", common.ErrorValidation)
	}
	return nil
}

func hashPassword(password string) string {
	salt := common.GenerateRandByteArray(16)
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hashPrefix + "$" +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(hash)
}

func verifyPassword(encoded, password string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashPrefix {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(want, got) == 1
}
