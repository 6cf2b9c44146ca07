// Package server assembles the HTTP routes.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/inbox"
	"github.com/whisperly/backend/internal/middleware"
	"github.com/whisperly/backend/internal/story"
)

// Deps is everything the router dispatches to.
type Deps struct {
	Auth        *auth.Handler
	Inbox       *inbox.Handler
	Stories     *story.Handler
	Sessions    *auth.SessionStore
	AuthLimiter *middleware.IPRateLimiter
	CORSOrigins []string

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	requireAuth := middleware.RequireAuth(d.Sessions)
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.AuthLimiter != nil {
					r.Use(d.AuthLimiter.Middleware)
				}
				r.Post("/sign-up", d.Auth.SignUp)
				r.Post("/sign-in", d.Auth.SignIn)
			})
			r.Post("/sign-out", d.Auth.SignOut)
			r.Get("/check-username-unique", d.Auth.CheckUsernameUnique)
			r.With(requireAuth).Get("/me", d.Auth.Me)
		})

		// Public profile pages
		r.Get("/users/{username}", d.Auth.PublicProfile)
		r.Get("/users/{username}/channels/{slug}", d.Inbox.LookupChannel)
		r.Post("/send-message", d.Inbox.SendMessage)

		// Owner routes (protected)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/accept-messages", d.Inbox.GetAcceptMessages)
			r.Post("/accept-messages", d.Inbox.SetAcceptMessages)
			r.Get("/messages", d.Inbox.ListMessages)
			r.Delete("/messages/{id}", d.Inbox.DeleteMessage)
			r.Get("/channels", d.Inbox.ListChannels)
			r.Post("/channels", d.Inbox.CreateChannel)
			r.Delete("/channels/{id}", d.Inbox.DeleteChannel)
		})

		r.Route("/stories", func(r chi.Router) {
			r.With(middleware.Identify(d.Sessions)).Get("/", d.Stories.List)
			r.With(requireAuth).Post("/", d.Stories.Create)
			r.With(requireAuth).Post("/like", d.Stories.Like)
		})
	})

	return r
}
