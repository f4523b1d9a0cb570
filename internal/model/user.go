package model

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for user accounts.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
}

// Role enumerates account roles.
type Role string

const (
	// RoleAdmin is the administrative role.
	RoleAdmin Role = "admin"
	// RoleUser is the default role for new accounts.
	RoleUser Role = "user"
)

// User represents a stored account with its authentication material.
// PasswordHash is empty for accounts that only sign in through Google.
type User struct {
	ID            uuid.UUID
	Email         string
	Name          string
	PasswordHash  string
	GoogleID      string
	Picture       string
	Role          Role
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether the account can authenticate with a local
// password.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NewLocalUser builds an account registered with email and password.
// The plaintext password is not stored here; hashing happens on the
// persistence path. Local accounts start unverified.
func NewLocalUser(name, email string) User {
	now := time.Now()
	return User{
		ID:            uuid.New(),
		Email:         NormalizeEmail(email),
		Name:          name,
		Picture:       AvatarURL(name),
		Role:          RoleUser,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewExternalUser builds an account from a principal resolved by a
// delegated identity provider. The provider already verified the email.
func NewExternalUser(p Principal) User {
	now := time.Now()
	picture := p.Picture
	if picture == "" {
		picture = AvatarURL(p.Name)
	}
	return User{
		ID:            uuid.New(),
		Email:         NormalizeEmail(p.Email),
		Name:          p.Name,
		GoogleID:      p.ID,
		Picture:       picture,
		Role:          RoleUser,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Principal is an already-authenticated identity handed over by the
// delegated auth provider.
type Principal struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Profile is the redacted account projection returned to API callers.
// It never carries the password hash.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Picture       string    `json:"picture"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"isEmailVerified"`
}

// Profile returns the redacted projection of the account.
func (u User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Picture:       u.Picture,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}

// NormalizeEmail lowercases and trims an email so it can serve as the
// account's natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AvatarURL derives a deterministic avatar image URL from a display name.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=0D9488&color=fff"
}
