package model

import "github.com/google/uuid"

// TokenClaims is the identity claim set carried by an issued token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// TokenManager issues and validates bearer tokens.
type TokenManager interface {
	Generate(user User) (string, error)
	Parse(token string) (TokenClaims, error)
}
