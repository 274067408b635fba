// Package keystore manages the file-backed master secret that anchors all
// per-user key derivation.
//
// Each task has its own random content key (see cryptox). To give several
// users access, that content key is stored wrapped for every collaborator.
// Rather than asking users to manage their own secrets, a stable per-user
// key is derived from one master secret with HMAC-SHA256. The master secret
// lives on disk (crypto/master.key by default) and the location can be
// overridden through the TASKVAULT_MASTER_KEY_PATH environment variable for
// tests and other environments.
package keystore

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/andrejsk/taskvault/internal/common"
)

// MasterKeyEnvVar overrides the master secret location when set.
const MasterKeyEnvVar = "TASKVAULT_MASTER_KEY_PATH"

// DefaultMasterKeyPath is used when no override is configured.
const DefaultMasterKeyPath = "crypto/master.key"

const masterKeySize = 32

// DefaultPath resolves the master secret location: the environment override
// if present, the well-known default otherwise.
func DefaultPath() string {
	if override := os.Getenv(MasterKeyEnvVar); override != "" {
		return override
	}
	return DefaultMasterKeyPath
}

// Store is the lazily loaded, cached holder of the master secret.
// Exactly one value is authoritative per deployment; losing it makes all
// wrapped keys permanently unrecoverable.
type Store struct {
	path string

	mu     sync.Mutex
	cached []byte
}

// New returns a Store reading from path. If path is empty, DefaultPath()
// is resolved at construction time.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the persistent location this store reads from.
func (s *Store) Path() string {
	return s.path
}

// LoadOrCreate returns the master secret, reading it from disk on first
// call and caching it for the process lifetime. If no secret exists yet,
// a fresh random 256-bit value is generated and persisted url-safe
// base64-encoded with 0600 permissions (best-effort).
//
// An existing file that cannot be decoded yields common.ErrorCorruptKeyStore:
// silently generating a replacement would orphan every wrapped key.
func (s *Store) LoadOrCreate() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	raw, err := os.ReadFile(s.path)
	if err == nil {
		secret, decErr := base64.URLEncoding.DecodeString(string(raw))
		if decErr != nil || len(secret) != masterKeySize {
			return nil, fmt.Errorf("%w: %s", common.ErrorCorruptKeyStore, s.path)
		}
		s.cached = secret
		return s.cached, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading master key from %s: %w", s.path, err)
	}

	secret := common.GenerateRandByteArray(masterKeySize)
	encoded := base64.URLEncoding.EncodeToString(secret)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating master key directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("writing master key to %s: %w", s.path, err)
	}
	// Restricting permissions may fail on some platforms (e.g. Windows);
	// not critical for functionality.
	_ = os.Chmod(s.path, 0o600)

	s.cached = secret
	return s.cached, nil
}

// ResetCache drops the in-memory copy so a different on-disk secret can be
// picked up. The persisted value itself is never touched.
func (s *Store) ResetCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}
