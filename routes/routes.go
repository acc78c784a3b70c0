package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hostelcare/complaint-api/app"
	"github.com/hostelcare/complaint-api/middleware"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Metrics(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authn := deps.AuthMiddleware
	r.Use(authn.Authenticate)

	if cfg.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", deps.HealthHandler.HandleHealth)
		r.Get("/health/ready", deps.HealthHandler.HandleReadiness)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/login-with-token", deps.AuthHandler.HandleLoginWithToken)
			r.With(authn.RequireAuthenticated).Get("/me", deps.AuthHandler.HandleMe)
		})

		r.Route("/complaints", func(r chi.Router) {
			r.Use(authn.RequireAuthenticated)

			complaints := deps.ComplaintHandler
			r.Get("/my", complaints.HandleListMine)
			r.With(authn.RequireRole(models.RoleStudent)).Post("/", complaints.HandleCreate)
			r.Get("/student/{studentId}", complaints.HandleListByStudent)
			r.Get("/{id}", complaints.HandleGet)
			r.Put("/{id}", complaints.HandleUpdate)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(authn.RequireRole(models.RoleAdmin))
				r.Get("/", complaints.HandleList)
				r.Get("/stats", complaints.HandleStats)
				r.Get("/status/{status}", complaints.HandleListByStatus)
				r.Get("/category/{category}", complaints.HandleListByCategory)
				r.Get("/admin/{adminId}", complaints.HandleListByAdmin)
				r.Put("/{id}/status", complaints.HandleUpdateStatus)
				r.Delete("/{id}", complaints.HandleDelete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn.RequireAuthenticated)

			users := deps.UserHandler
			r.Get("/{id}", users.HandleGet)
			r.Put("/{id}", users.HandleUpdate)
			r.Get("/{id}/children", users.HandleChildren)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(authn.RequireRole(models.RoleAdmin))
				r.Get("/", users.HandleList)
				r.Get("/role/{role}", users.HandleListByRole)
				r.Put("/{id}/activate", users.HandleActivate)
				r.Put("/{id}/deactivate", users.HandleDeactivate)
				r.Delete("/{id}", users.HandleDelete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}
