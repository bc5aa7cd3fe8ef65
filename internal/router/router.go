package router

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leca/loqed-births/internal/api"
	"github.com/leca/loqed-births/internal/config"
	"github.com/leca/loqed-births/internal/gateway"
	"github.com/leca/loqed-births/internal/handler"
	"github.com/leca/loqed-births/internal/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	Registry *registry.Service
	Images   *gateway.Gateway
	Config   *config.Config
	Router   chi.Router
}

// New creates a new Server with a fully configured chi router.
func New(reg *registry.Service, images *gateway.Gateway, cfg *config.Config) *Server {
	s := &Server{Registry: reg, Images: images, Config: cfg}

	maxUpload := int64(cfg.MaxUploadMB) << 20
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	h := &handler.Handler{
		Registry:       reg,
		Images:         images,
		MaxUploadBytes: maxUpload,
	}

	r := chi.NewRouter()

	// CORS must run first so preflight OPTIONS requests are answered.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		// Multipart overhead on top of the image itself.
		r.Use(api.MaxBodySize(maxUpload + 1<<20))
		r.Post("/add_user", h.AddUser)
		r.Put("/update_user/{id}", h.UpdateUser)
	})
	r.Get("/get_users", h.GetUsers)
	r.Delete("/delete_user/{id}", h.DeleteUser)

	r.Get("/get_secure_image/{content_id}", h.GetSecureImage)
	r.Get("/secure_image/{token}", h.SecureImage)
	r.Get("/load_image/{content_id}", h.LoadImage)

	limiter := api.NewRateLimiter(cfg.AskPerMinute, max(cfg.AskPerMinute/4, 1))
	r.With(limiter.Middleware, api.MaxBodySize(64<<10)).Post("/perguntar", h.Ask)

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("Health: failed to encode response", "error", err)
	}
}
