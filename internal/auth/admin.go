package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

const defaultCost = 12

// compareHash is swapped in tests to count bcrypt comparisons.
var compareHash = bcrypt.CompareHashAndPassword

// HashAdminKey returns the bcrypt hash an operator puts in ADMIN_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	return hashAdminKey(key, defaultCost)
}

func hashAdminKey(key string, cost int) (string, error) {
	if key == "" {
		return "", errors.New("auth: admin key must not be empty")
	}
	// bcrypt silently ignores input past 72 bytes.
	if len(key) > 72 {
		return "", errors.New("auth: admin key must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing admin key: %w", err)
	}
	return string(hashed), nil
}

// AdminVerifier checks presented admin keys against a stored bcrypt hash.
// The zero value (or an empty hash) rejects every key.
//
// The SHA-256 digest of the last key that passed bcrypt is remembered, so
// repeat requests with the same key skip the bcrypt cost. Wrong keys always
// pay it.
type AdminVerifier struct {
	hash     []byte
	verified atomic.Pointer[[sha256.Size]byte]
}

// NewAdminVerifier validates that hash is a bcrypt hash. An empty hash
// disables admin access.
func NewAdminVerifier(hash string) (*AdminVerifier, error) {
	if hash == "" {
		return &AdminVerifier{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("auth: ADMIN_KEY_HASH is not a bcrypt hash: %w", err)
	}
	return &AdminVerifier{hash: []byte(hash)}, nil
}

// Enabled reports whether an admin key hash is configured.
func (v *AdminVerifier) Enabled() bool {
	return v != nil && len(v.hash) > 0
}

// Verify reports whether key matches the configured hash.
func (v *AdminVerifier) Verify(key string) bool {
	if !v.Enabled() || key == "" {
		return false
	}

	digest := sha256.Sum256([]byte(key))
	if last := v.verified.Load(); last != nil && subtle.ConstantTimeCompare(last[:], digest[:]) == 1 {
		return true
	}

	if compareHash(v.hash, []byte(key)) != nil {
		return false
	}
	v.verified.Store(&digest)
	return true
}
