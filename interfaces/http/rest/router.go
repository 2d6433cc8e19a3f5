// Package rest wires the HTTP surface: routes, middleware and the
// handlers behind them.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"arbor/application/commands/bus"
	querybus "arbor/application/queries/bus"
	"arbor/application/services"
	"arbor/infrastructure/config"
	"arbor/interfaces/http/rest/handlers"
	"arbor/interfaces/http/rest/middleware"
	"arbor/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg         *config.Config
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	authService *services.AuthService
	jwtService  *auth.JWTService
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	authService *services.AuthService,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		commandBus:  commandBus,
		queryBus:    queryBus,
		authService: authService,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		// Credential endpoints stay open
		r.Route("/auth", func(r chi.Router) {
			authHandler := handlers.NewAuthHandler(rt.authService, rt.logger)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Hierarchy endpoints require a valid token; structural
		// mutations additionally require the admin role
		r.Route("/tree", func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.jwtService, rt.cfg.RateLimitPerMinute, rt.logger))

			nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.logger)

			r.Post("/nodes", nodeHandler.CreateNode)
			r.Get("/nodes/{nodeID}", nodeHandler.GetNode)
			r.Get("/roots", nodeHandler.ListRoots)
			r.Get("/export", nodeHandler.ExportTree)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Put("/nodes/{nodeID}", nodeHandler.UpdateNode)
				r.Put("/nodes/{nodeID}/parent", nodeHandler.MoveNode)
				r.Delete("/nodes/{nodeID}", nodeHandler.DeleteNode)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
