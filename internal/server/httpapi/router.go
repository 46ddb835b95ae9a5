// Package httpapi exposes the service over HTTP: registration and token
// endpoints, authenticated file upload/download/search, and health probes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - GET  /health                  - Liveness probe
//   - POST /api/v1/auth/register    - User registration
//   - POST /api/v1/auth/token       - Credential login, returns a token pair
//   - POST /api/v1/auth/refresh     - Refresh token rotation
//   - GET  /api/v1/users/me         - Current user info (authenticated)
//   - GET  /api/v1/files            - List own files (authenticated)
//   - POST /api/v1/files/upload     - Multipart upload (authenticated)
//   - GET  /api/v1/files/download   - Download by path or id (authenticated)
//   - POST /api/v1/files/search     - Metadata search (authenticated)
func NewRouter(users UserService, files FileService, secretKey []byte) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	validate := validator.New()
	authHandler := NewAuthHandler(users, validate)
	fileHandler := NewFileHandler(files, validate)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/token", authHandler.Token)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth(secretKey))

			r.Get("/users/me", authHandler.Me)

			r.Route("/files", func(r chi.Router) {
				r.Get("/", fileHandler.List)
				r.Post("/upload", fileHandler.Upload)
				r.Get("/download", fileHandler.Download)
				r.Post("/search", fileHandler.Search)
			})
		})
	})

	return r
}
