package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"chirper-api/internal/handler"
	"chirper-api/internal/httputil"
	authmw "chirper-api/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	PostHandler         *handler.PostHandler
	SubscriptionHandler *handler.SubscriptionHandler
	AccessTokenSecret   string
	CORSOrigins         []string
	LoginLimiter        *authmw.RateLimiter
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.With(cfg.LoginLimiter.Handler).Post("/login", cfg.AuthHandler.Login)
		r.Get("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/logout", cfg.AuthHandler.Logout)
	})

	// Sign-up is the one public user route
	r.Post("/users", cfg.UserHandler.Register)

	// Protected routes - require a valid access token
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.AccessTokenSecret))

		// The segment after /users is a numeric id for some routes and a
		// username for the avatar/header ones; chi needs one param name
		// per position, so handlers interpret userRef per route.
		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.List)
			r.Delete("/", cfg.UserHandler.Delete)
			r.Get("/current/{username}", cfg.UserHandler.GetCurrent)
			r.Get("/{userRef}", cfg.UserHandler.GetByID)
			r.Patch("/{userRef}", cfg.UserHandler.Update)
			r.Post("/{userRef}/toggle-follow", cfg.UserHandler.ToggleFollow)
			r.Post("/{userRef}/upload_avatar", cfg.UserHandler.UploadAvatar)
			r.Post("/{userRef}/upload_header", cfg.UserHandler.UploadHeader)
			r.Delete("/{userRef}/delete_avatar", cfg.UserHandler.DeleteAvatar)
			r.Delete("/{userRef}/delete_header", cfg.UserHandler.DeleteHeader)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.PostHandler.List)
			r.Post("/", cfg.PostHandler.Create)
			r.Get("/{postId}", cfg.PostHandler.Get)
			r.Patch("/{postId}", cfg.PostHandler.Update)
			r.Delete("/{postId}", cfg.PostHandler.Delete)
			r.Patch("/{postId}/like", cfg.PostHandler.ToggleLike)
			r.Patch("/{postId}/view", cfg.PostHandler.AddView)
			r.Patch("/{postId}/bookmark", cfg.PostHandler.ToggleBookmark)
			r.Post("/{postId}/repost", cfg.PostHandler.Repost)
			r.Post("/{postId}/quote", cfg.PostHandler.Quote)
			r.Post("/{postId}/reply", cfg.PostHandler.Reply)
			r.Get("/{postId}/replies", cfg.PostHandler.GetReplies)
		})

		r.Post("/subscription", cfg.SubscriptionHandler.Subscribe)
	})

	return r
}
