package model

// PasswordHasher applies a one-way, salted, adaptive-cost transform to
// local passwords. Verify against an empty stored hash is always false.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
