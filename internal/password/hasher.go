// Package password provides one-way password hashing for local accounts.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor applied to new hashes.
const Cost = 12

// Hasher hashes and verifies passwords with bcrypt. bcrypt salts every
// hash itself, so two hashes of the same plaintext never match.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the default cost.
func NewHasher() *Hasher {
	return &Hasher{cost: Cost}
}

// Hash returns the bcrypt hash of a plaintext password.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. An empty hash
// never matches: accounts without a password credential always fail local
// verification instead of erroring.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
