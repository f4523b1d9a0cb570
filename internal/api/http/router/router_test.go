package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/minicrm/server/internal/api/http/context"
	"github.com/minicrm/server/internal/api/http/handler"
	"github.com/minicrm/server/internal/metrics"
	"github.com/minicrm/server/internal/model"
	"github.com/minicrm/server/internal/oauth"
	"github.com/minicrm/server/internal/password"
	"github.com/minicrm/server/internal/service"
	"github.com/minicrm/server/internal/testutil"
	"github.com/minicrm/server/internal/token"
)

// memoryUserStore backs the end-to-end tests without a database.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]model.User)}
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *memoryUserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.User{}, model.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *memoryUserStore) Update(ctx context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return model.User{}, model.ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

type alwaysHealthy struct{}

func (alwaysHealthy) Ping(ctx context.Context) error { return nil }

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) (http.Handler, *memoryUserStore) {
	t.Helper()

	log := testutil.MakeNoopLogger()
	store := newMemoryUserStore()
	tokenManager := token.NewJWT(testSecret)
	contextManager := httpctx.NewManager()
	authService := service.NewAuth(store, password.NewHasher(), tokenManager, log)
	provider := oauth.NewGoogle(oauth.GoogleConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:5000/api/auth/google/callback",
	})

	r := New(
		authService,
		provider,
		tokenManager,
		contextManager,
		alwaysHealthy{},
		metrics.NewCollector(),
		handler.Config{ClientURL: "http://localhost:3000"},
		log,
	)
	return r.Register(), store
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	parsed := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func TestRouter_RegisterThenLogin(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@x.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	registerToken := body["token"].(string)
	require.NotEmpty(t, registerToken)

	registered := body["user"].(map[string]any)
	assert.Equal(t, "ann@x.com", registered["email"])
	assert.Equal(t, "user", registered["role"])
	assert.Equal(t, false, registered["isEmailVerified"])
	assert.Contains(t, registered["picture"], "ui-avatars.com")

	// the stored credential never leaks through the projection
	raw := rec.Body.String()
	assert.NotContains(t, raw, "Abcdef1")
	assert.NotContains(t, raw, "$2a$")

	rec, body = doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"email":"ann@x.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	loginToken := body["token"].(string)
	assert.NotEmpty(t, loginToken)

	loggedIn := body["user"].(map[string]any)
	assert.Equal(t, registered["id"], loggedIn["id"])

	// both tokens resolve to the same account
	tokenManager := token.NewJWT(testSecret)
	first, err := tokenManager.Parse(registerToken)
	require.NoError(t, err)
	second, err := tokenManager.Parse(loginToken)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, "ann@x.com", first.Email)
	assert.Equal(t, model.RoleUser, first.Role)
}

func TestRouter_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@x.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"Ann Again","email":"ANN@X.COM","password":"Abcdef1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user already exists with this email", body["message"])
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@x.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, wrongPassword := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"email":"ann@x.com","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, unknownEmail := doJSON(t, h, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@x.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// both rejections look the same to the caller
	assert.Equal(t, wrongPassword["message"], unknownEmail["message"])
}

func TestRouter_MeRequiresToken(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MeWithIssuedToken(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@x.com","password":"Abcdef1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	issued := body["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+issued)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var me map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ann@x.com", me["user"]["email"])
	assert.Equal(t, "Ann", me["user"]["name"])
}

func TestRouter_MeWithForeignToken(t *testing.T) {
	h, _ := newTestServer(t)

	foreign, err := token.NewJWT("some-other-secret").Generate(model.NewLocalUser("Eve", "eve@x.com"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_GoogleConsentRedirect(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/auth/google", "")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "client_id=test-client")
	assert.Contains(t, location, "state=")
}

func TestRouter_SystemEndpoints(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Mini CRM API", body["message"])

	rec, body = doJSON(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["message"])

	rec, _ = doJSON(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "minicrm_http_requests_total")
}
