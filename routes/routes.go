package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/stylecart/api-gateway/app"
	"github.com/stylecart/api-gateway/auth"
	"github.com/stylecart/api-gateway/authz"
	"github.com/stylecart/api-gateway/middleware"
	"github.com/stylecart/api-gateway/utils"
)

// ownerPolicy is the policy for customer- and order-scoped resources:
// managers and stock staff see everything, customers only their own records.
var ownerPolicy = authz.OwnerPolicy{
	PrivilegedRoles: []string{auth.RoleManager, auth.RoleStock},
}

// SetupRoutes composes the gateway pipeline: CORS preflight, global rate
// limit, request logging, then prefix routing with auth enforced on
// protected prefixes before the proxy runs.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	// CORS middleware; answers OPTIONS preflight before routing
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global fixed-window rate limit, shared across all callers
	r.Use(httprate.Limit(
		deps.Config.RateLimit.Requests,
		deps.Config.RateLimit.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "global", nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			_ = utils.WriteTooManyRequests(w, "")
		}),
	))

	r.Get("/health", deps.HealthHandler.HandleHealth)

	am := deps.AuthMiddleware
	gw := deps.Gateway

	if deps.Config.Auth.Enforced {
		// Customer records: owner or privileged. /profile is the caller's
		// own record and only needs a verified identity.
		r.Route("/api/customers", func(r chi.Router) {
			r.Use(am.RequireAuth)
			r.Handle("/", gw)
			r.Handle("/profile", gw)
			r.Handle("/profile/*", gw)
			r.With(am.RequireOwner("customerID", ownerPolicy)).Handle("/{customerID}", gw)
			r.With(am.RequireOwner("customerID", ownerPolicy)).Handle("/{customerID}/*", gw)
		})

		// Orders: authenticated; customer-scoped listings are owner-gated.
		r.Route("/api/orders", func(r chi.Router) {
			r.Use(am.RequireAuth)
			r.With(am.RequireOwner("customerID", ownerPolicy)).Handle("/customer/{customerID}", gw)
			r.With(am.RequireOwner("customerID", ownerPolicy)).Handle("/customer/{customerID}/*", gw)
			r.Handle("/", gw)
			r.Handle("/*", gw)
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Use(am.RequireAuth)
			r.Handle("/", gw)
			r.Handle("/*", gw)
		})

		// Recommendations personalize when a credential is present but
		// never require one.
		r.With(am.OptionalAuth).Handle("/api/recommendations", gw)
		r.With(am.OptionalAuth).Handle("/api/recommendations/*", gw)
	}

	// Everything else under /api is routed as-is; services self-protect.
	// With gateway auth disabled this is the whole table.
	r.Handle("/api", gw)
	r.Handle("/api/*", gw)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found")
	})

	return r
}
