// Package secrets generates and verifies tenant API keys. Keys are random
// 256-bit values handed to the caller exactly once; only the bcrypt hash is
// ever stored.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "gatehouse/pkg/domain-errors"
)

// Generate creates a cryptographically secure random API key,
// base64-encoded for transport in headers.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided key for storage.
func Hash(key string) (string, error) {
	if key == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "api key cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "api key is too long")
		}
		return "", fmt.Errorf("could not hash api key: %w", err)
	}
	return string(hashed), nil
}

// Verify checks if a plaintext key matches a bcrypt hash.
func Verify(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeInvalidInput, "invalid api key")
		}
		return fmt.Errorf("could not verify api key: %w", err)
	}
	return nil
}
