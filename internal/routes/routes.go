package routes

import (
	"net/http"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/BrayanFerreiraDacruz/notesync-backend/docs" // swagger docs
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/config"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/handlers"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/logging"
	"github.com/BrayanFerreiraDacruz/notesync-backend/internal/middleware"
)

// Handlers groups everything the router dispatches to.
// GoogleAuth is nil when Google sign-in is not configured.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Events     *handlers.EventsHandler
	Profile    *handlers.ProfileHandler
	Health     *handlers.HealthHandler
	GoogleAuth *handlers.GoogleAuthHandler
}

// SetupRoutes builds the application handler: the route table wrapped in
// request logging and CORS.
func SetupRoutes(h Handlers, guard *middleware.AccessGuard, limiter *middleware.RateLimiter, corsCfg config.CORSConfig, log logging.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check routes
	mux.HandleFunc("GET /healthz", h.Health.HealthCheck)
	mux.HandleFunc("GET /livez", h.Health.LivenessCheck)
	mux.HandleFunc("GET /readyz", h.Health.ReadinessCheck)
	mux.HandleFunc("GET /api/test", h.Health.APITest)

	// Swagger UI
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Authentication routes
	mux.Handle("POST /api/auth/register", limiter.Limit(http.HandlerFunc(h.Auth.Register)))
	mux.Handle("POST /api/auth/login", limiter.Limit(http.HandlerFunc(h.Auth.Login)))
	mux.Handle("GET /api/auth/validate", guard.RequireFunc(h.Auth.Validate))

	if h.GoogleAuth != nil {
		mux.Handle("GET /api/auth/google/login", limiter.Limit(http.HandlerFunc(h.GoogleAuth.GoogleLogin)))
		mux.Handle("GET /api/auth/google/callback", limiter.Limit(http.HandlerFunc(h.GoogleAuth.GoogleCallback)))
	}

	// Event routes
	mux.Handle("GET /api/events", guard.RequireFunc(h.Events.List))
	mux.Handle("POST /api/events", guard.RequireFunc(h.Events.Create))
	mux.Handle("GET /api/events/search", guard.RequireFunc(h.Events.Search))
	mux.Handle("GET /api/events/{id}", guard.RequireFunc(h.Events.Get))
	mux.Handle("PUT /api/events/{id}", guard.RequireFunc(h.Events.Update))
	mux.Handle("DELETE /api/events/{id}", guard.RequireFunc(h.Events.Delete))
	mux.Handle("POST /api/events/{id}/sync", guard.RequireFunc(h.Events.Sync))

	// Profile routes
	mux.Handle("GET /api/user/profile", guard.RequireFunc(h.Profile.Get))
	mux.Handle("PUT /api/user/profile", guard.RequireFunc(h.Profile.Update))

	// Root route
	mux.HandleFunc("GET /{$}", rootHandler)

	c := cors.New(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: corsCfg.AllowCredentials,
	})

	return middleware.RequestID(log)(c.Handler(mux))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("NoteSync backend is running."))
}
