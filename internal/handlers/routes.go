package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vimeoalbum/backend/internal/assets"
	"github.com/vimeoalbum/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Sessions     SessionManager
	Pages        PageStore
	Renderer     PageRenderer
	Database     Pinger
	LoginLimiter middleware.RateLimiter
	PurgeLimiter middleware.RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	pageHandler := PageHandler{Pages: deps.Pages, Renderer: deps.Renderer, PurgeLimiter: deps.PurgeLimiter}

	r.Get("/healthz", health.Handle)
	r.Handle("/static/*", http.StripPrefix("/static/", assets.Handler()))

	r.Group(func(r chi.Router) {
		var verifier middleware.TokenVerifier
		if deps.Sessions != nil {
			verifier = deps.Sessions
		}
		r.Use(middleware.Viewer(verifier))

		r.Get("/pages/{id}", pageHandler.Show)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Use(middleware.RateLimit(deps.LoginLimiter, "auth"))
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
				r.Post("/logout", authHandler.Logout)
			})

			r.Get("/pages", pageHandler.List)
			r.With(middleware.RequirePrivileged).Put("/pages/{id}", pageHandler.Put)
		})
	})
}
