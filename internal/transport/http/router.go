package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"engagement/internal/handler"
	"engagement/internal/httputil"
	authmw "engagement/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	ReactionHandler *handler.ReactionHandler
	CommentHandler  *handler.CommentHandler
	JWTSecret       string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Listing endpoints with optional authentication: anonymous viewers get
	// the public view, logged-in viewers get their own reaction and
	// can_edit/can_delete annotations.
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/reactions/{type}/{id}", cfg.ReactionHandler.List)
		r.Get("/comments/list/{type}/{id}", cfg.CommentHandler.List)
		r.Get("/comments/{id}/replies", cfg.CommentHandler.Replies)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout", cfg.AuthHandler.Logout)

		// Reaction mutations
		r.Post("/reactions", cfg.ReactionHandler.React)
		r.Delete("/reactions", cfg.ReactionHandler.Unreact)

		// Comment mutations
		r.Post("/comments", cfg.CommentHandler.Create)
		r.Put("/comments/{id}", cfg.CommentHandler.Update)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)
	})

	return r
}
