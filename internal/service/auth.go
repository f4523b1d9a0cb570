package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/minicrm/server/internal/logger"
	"github.com/minicrm/server/internal/model"
)

// RegisterParams contains the input of a local registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Session is an issued token together with the account it identifies.
type Session struct {
	Token string
	User  model.User
}

// Auth implements registration, login and delegated identity resolution.
type Auth struct {
	userStore    model.UserStore
	hasher       model.PasswordHasher
	tokenManager model.TokenManager
	logger       *logger.Logger
}

// NewAuth creates a new Auth service.
func NewAuth(
	userStore model.UserStore,
	hasher model.PasswordHasher,
	tokenManager model.TokenManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		hasher:       hasher,
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// Register creates a local account and issues its first token. The email
// conflict is checked up front and again enforced by the store's unique
// index, so a concurrent duplicate still surfaces as ErrEmailTaken.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (Session, error) {
	email := model.NormalizeEmail(params.Email)
	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	_, err := a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return Session{}, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	user := model.NewLocalUser(params.Name, email)

	// The plaintext is replaced by its hash before anything is persisted.
	// A hashing failure aborts the registration.
	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	created, err := a.userStore.Create(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			a.logger.Info("Auth service: user already exists",
				"email", email)
			return Session{}, model.ErrEmailTaken
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := a.tokenManager.Generate(created)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user registered successfully",
		"email", email,
		"user_id", created.ID)

	return Session{Token: token, User: created}, nil
}

// Login verifies a local password and issues a token. Unknown email and
// wrong password produce the same outcome; a Google-only account gets a
// distinct one pointing the caller to the delegated flow.
func (a *Auth) Login(ctx context.Context, email, plaintext string) (Session, error) {
	email = model.NormalizeEmail(email)
	a.logger.Debug("Auth service: starting user login",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return Session{}, model.ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.HasPassword() {
		a.logger.Info("Auth service: password login on delegated account",
			"email", email)
		return Session{}, model.ErrPasswordless
	}

	if !a.hasher.Verify(plaintext, user.PasswordHash) {
		return Session{}, model.ErrInvalidCredentials
	}

	token, err := a.tokenManager.Generate(user)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user logged in successfully",
		"email", email,
		"user_id", user.ID)

	return Session{Token: token, User: user}, nil
}

// ResolveExternal reconciles a principal from the delegated identity
// provider with the credential store and issues a token. Unknown emails
// get a fresh verified account; a local account with the same email gets
// the external identity linked to it.
func (a *Auth) ResolveExternal(ctx context.Context, principal model.Principal) (Session, error) {
	email := model.NormalizeEmail(principal.Email)
	a.logger.Debug("Auth service: resolving delegated principal",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, model.ErrNotFound):
		user, err = a.userStore.Create(ctx, model.NewExternalUser(principal))
		if err != nil {
			a.logger.Error("Auth service: failed to create delegated user",
				"email", email,
				"error", err.Error())
			return Session{}, fmt.Errorf("failed to create user: %w", err)
		}
		a.logger.Info("Auth service: delegated user created",
			"email", email,
			"user_id", user.ID)
	case err != nil:
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	case user.GoogleID == "":
		user.GoogleID = principal.ID
		user.EmailVerified = true
		if user.Picture == "" {
			user.Picture = principal.Picture
		}
		user, err = a.userStore.Update(ctx, user)
		if err != nil {
			a.logger.Error("Auth service: failed to link delegated identity",
				"email", email,
				"error", err.Error())
			return Session{}, fmt.Errorf("failed to update user: %w", err)
		}
		a.logger.Info("Auth service: delegated identity linked",
			"email", email,
			"user_id", user.ID)
	}

	token, err := a.tokenManager.Generate(user)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"email", email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to issue token: %w", err)
	}

	return Session{Token: token, User: user}, nil
}

// UserByID loads the current account for a previously issued token.
func (a *Auth) UserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}
