// Package cryptox implements the authenticated encryption used for task
// payloads and key wraps.
//
// Every task owns a random content key. Payloads are sealed with AES-GCM
// under that key, and the result is packed into a single url-safe base64
// token (nonce || ciphertext || tag) so it can live in a TEXT column
// without escaping concerns.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/andrejsk/taskvault/internal/common"
)

const (
	// KeySize is the length of keys produced by GenerateKey (AES-256).
	// Encrypt and Decrypt also accept 16- and 24-byte AES keys.
	KeySize = 32

	// NonceSize is the GCM nonce length. A fresh random nonce is drawn for
	// every Encrypt call; reusing a nonce under the same key breaks GCM.
	NonceSize = 12

	// Overhead is the GCM authentication tag length appended to ciphertext.
	Overhead = 16
)

// GenerateKey returns a fresh random 256-bit content key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) == 0 {
		return nil, common.ErrorInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		// aes.KeySizeError
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidKey, err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key and returns a self-contained token.
// The empty string is a valid plaintext.
func Encrypt(plaintext string, key []byte) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	token := make([]byte, 0, len(nonce)+len(sealed))
	token = append(token, nonce...)
	token = append(token, sealed...)

	return base64.URLEncoding.EncodeToString(token), nil
}

// Decrypt reverses Encrypt. An empty token decrypts to the empty string
// without invoking the cipher. A malformed token or a failed authentication
// tag yields common.ErrorDecryption.
func Decrypt(token string, key []byte) (string, error) {
	if token == "" {
		return "", nil
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: malformed token", common.ErrorDecryption)
	}
	if len(raw) < NonceSize+Overhead {
		return "", fmt.Errorf("%w: token too short", common.ErrorDecryption)
	}

	nonce, sealed := raw[:NonceSize], raw[NonceSize:]

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", common.ErrorDecryption
	}

	return string(plaintext), nil
}
