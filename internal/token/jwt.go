package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/minicrm/server/internal/model"
)

// TokenTTL is the fixed lifetime of an issued token.
const TokenTTL = 24 * time.Hour

// Claims represents JWT claims carrying the account identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID  `json:"id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// JWT implements TokenManager backed by symmetric HMAC. It keeps no
// per-token state; validity is reconstructed from the signed payload.
type JWT struct {
	secretKey string
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) model.TokenManager {
	return &JWT{secretKey: secretKey}
}

// Generate creates a signed token for the user, expiring in 24 hours.
// Only the identity claim set is embedded, never password material.
func (j *JWT) Generate(user model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Parse validates a token and extracts its identity claims. Expired,
// malformed and foreign-signed tokens are all rejected.
func (j *JWT) Parse(tokenString string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.TokenClaims{}, fmt.Errorf("token is invalid")
	}
	if claims.UserID == uuid.Nil {
		return model.TokenClaims{}, fmt.Errorf("token carries no user id")
	}

	return model.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
