package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minicrm/server/internal/api/http/handler"
	"github.com/minicrm/server/internal/api/http/middleware"
	"github.com/minicrm/server/internal/logger"
	"github.com/minicrm/server/internal/metrics"
	"github.com/minicrm/server/internal/model"
)

// Router assembles the HTTP routes and middleware chain.
type Router struct {
	authService    handler.AuthService
	provider       handler.IdentityProvider
	tokenManager   model.TokenManager
	contextManager model.ContextManager
	pinger         handler.Pinger
	collector      *metrics.Collector
	handlerConfig  handler.Config
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService handler.AuthService,
	provider handler.IdentityProvider,
	tokenManager model.TokenManager,
	contextManager model.ContextManager,
	pinger handler.Pinger,
	collector *metrics.Collector,
	handlerConfig handler.Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		provider:       provider,
		tokenManager:   tokenManager,
		contextManager: contextManager,
		pinger:         pinger,
		collector:      collector,
		handlerConfig:  handlerConfig,
		logger:         logger,
	}
}

// Register builds the chi router with logging and metrics applied to all
// routes and bearer authentication on the protected ones.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	observe := middleware.NewMetrics(r.collector)
	authenticate := middleware.NewAuthenticate(r.tokenManager, r.contextManager, r.logger)

	authHandler := handler.NewAuth(r.authService, r.provider, r.contextManager, r.handlerConfig, r.logger)
	systemHandler := handler.NewSystem(r.pinger, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)
	mux.Use(observe.Handle)

	mux.Get("/", systemHandler.Root)
	mux.Get("/healthz", systemHandler.Healthz)

	mux.Route("/api/auth", func(mux chi.Router) {
		mux.Post("/register", authHandler.Register)
		mux.Post("/login", authHandler.Login)
		mux.Get("/google", authHandler.GoogleLogin)
		mux.Get("/google/callback", authHandler.GoogleCallback)

		mux.Group(func(mux chi.Router) {
			mux.Use(authenticate.Handle)
			mux.Get("/me", authHandler.Me)
		})
	})

	mux.Method(http.MethodGet, "/metrics", r.collector.Handler())

	return mux
}
