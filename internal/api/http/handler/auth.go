package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"

	"github.com/minicrm/server/internal/logger"
	"github.com/minicrm/server/internal/model"
	"github.com/minicrm/server/internal/service"
)

// oauthStateCookie holds the anti-forgery state between the consent
// redirect and the provider callback.
const oauthStateCookie = "oauth_state"

// AuthService defines registration, login and delegated auth operations.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	ResolveExternal(ctx context.Context, principal model.Principal) (service.Session, error)
	UserByID(ctx context.Context, id uuid.UUID) (model.User, error)
}

// IdentityProvider is the delegated identity provider handshake. The
// callback handler only consumes the already-resolved principal.
type IdentityProvider interface {
	LoginURL(state string) string
	ExchangeCode(ctx context.Context, code string) (model.Principal, error)
}

// Config contains handler parameters for browser redirects.
type Config struct {
	// ClientURL is the front-end base URL redirect targets are built on.
	ClientURL string
	// SecureCookies marks the state cookie Secure; enable behind TLS.
	SecureCookies bool
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	provider       IdentityProvider
	contextManager model.ContextManager
	config         Config
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	authService AuthService,
	provider IdentityProvider,
	contextManager model.ContextManager,
	config Config,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		provider:       provider,
		contextManager: contextManager,
		config:         config,
		logger:         logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    model.Profile `json:"user"`
}

// Register creates a new local account.
// POST /api/auth/register
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	session, err := h.authService.Register(r.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		writeAuthError(w, err, "registration failed")
		return
	}

	h.logger.Info("Auth handler: user registered",
		"user_id", session.User.ID)

	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "User registered successfully",
		Token:   session.Token,
		User:    session.User.Profile(),
	})
}

// Login authenticates a local account.
// POST /api/auth/login
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: login rejected",
			"email", req.Email,
			"error", err.Error())
		writeAuthError(w, err, "login failed")
		return
	}

	h.logger.Info("Auth handler: user logged in",
		"user_id", session.User.ID)

	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		Token:   session.Token,
		User:    session.User.Profile(),
	})
}

// GoogleLogin starts the delegated auth flow by redirecting the browser
// to the provider's consent page.
// GET /api/auth/google
func (h *Auth) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		h.logger.Error("Auth handler: failed to generate oauth state",
			"error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the delegated auth flow. Its caller is always
// a browser navigation, so every failure degrades to the login-error
// redirect and never to a JSON body.
// GET /api/auth/google/callback
func (h *Auth) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		h.logger.Info("Auth handler: oauth state mismatch")
		h.redirectLoginError(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Info("Auth handler: oauth callback without code")
		h.redirectLoginError(w, r)
		return
	}

	principal, err := h.provider.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("Auth handler: oauth code exchange failed",
			"error", err.Error())
		h.redirectLoginError(w, r)
		return
	}

	session, err := h.authService.ResolveExternal(r.Context(), principal)
	if err != nil {
		h.logger.Error("Auth handler: delegated auth failed",
			"error", err.Error())
		h.redirectLoginError(w, r)
		return
	}

	h.logger.Info("Auth handler: delegated login succeeded",
		"user_id", session.User.ID)

	http.Redirect(w, r, h.config.ClientURL+"/auth/success?token="+session.Token, http.StatusFound)
}

// Me returns the current account for a bearer token.
// GET /api/auth/me
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	user, err := h.authService.UserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("Auth handler: failed to load current user",
			"user_id", userID,
			"error", err.Error())
		writeAuthError(w, err, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]model.Profile{"user": user.Profile()})
}

func (h *Auth) redirectLoginError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.ClientURL+"/login?error=authentication_failed", http.StatusFound)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
