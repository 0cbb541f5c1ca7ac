// Package server composes the HTTP handlers into the API router.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/task-manager-api/internal/httpx"
	"github.com/ayush/task-manager-api/internal/logging"
	"github.com/ayush/task-manager-api/internal/media"
	"github.com/ayush/task-manager-api/internal/middleware"
	"github.com/ayush/task-manager-api/internal/tasks"
	"github.com/ayush/task-manager-api/internal/users"
)

// Deps are the handlers and collaborators the router mounts.
type Deps struct {
	Logger      *slog.Logger
	Verifier    middleware.TokenVerifier
	Users       *users.Handler
	Tasks       *tasks.Handler
	Uploads     *media.UploadHandler
	CORSOrigins []string
}

// NewRouter builds the API router.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(d.Verifier)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", d.Users.Register)
		r.Post("/login", d.Users.Login)
		r.Get("/{id}/avatar", d.Users.Avatar)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", d.Users.Logout)
			r.Post("/logoutall", d.Users.LogoutAll)
			r.Get("/me", d.Users.Me)
			r.Patch("/me", d.Users.UpdateMe)
			r.Delete("/me", d.Users.DeleteMe)
			r.Post("/me/avatar", d.Users.UploadAvatar)
			r.Delete("/me/avatar", d.Users.DeleteAvatar)
		})
	})

	r.Post("/upload", d.Uploads.Upload)

	r.Route("/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", d.Tasks.Create)
		r.Get("/", d.Tasks.List)
		r.Get("/{id}", d.Tasks.Get)
		r.Patch("/{id}", d.Tasks.Update)
		r.Delete("/{id}", d.Tasks.Delete)
	})

	return r
}
