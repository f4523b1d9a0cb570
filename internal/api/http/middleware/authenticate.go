package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/minicrm/server/internal/logger"
	"github.com/minicrm/server/internal/model"
)

// Authenticate validates bearer tokens and injects the user ID into the
// request context. Malformed, expired and foreign-signed tokens are all
// rejected with 401 before the handler runs.
type Authenticate struct {
	tokenManager   model.TokenManager
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenManager model.TokenManager, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenManager: tokenManager, contextManager: contextManager, logger: logger}
}

// Handle parses the Authorization header, validates the token and calls
// the next handler with the user ID on the context.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			m.unauthorized(w, "missing authorization token")
			return
		}

		claims, err := m.tokenManager.Parse(tokenString)
		if err != nil {
			m.logger.Debug("Authenticate middleware: token rejected",
				"error", err.Error())
			m.unauthorized(w, "invalid authorization token")
			return
		}

		ctx := m.contextManager.SetUserIDToContext(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Authenticate) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
