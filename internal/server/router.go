package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/config"
	"github.com/classpulse/embedapi/internal/middleware"
	"github.com/classpulse/embedapi/internal/telemetry"
)

// RouterOptions controls the construction of the HTTP router. Cfg, Issuer,
// Validator, and Registry are required; Broker is optional and the embed
// route is only mounted when it is set.
type RouterOptions struct {
	Issuer    *auth.Issuer
	Validator *auth.Validator
	Registry  auth.Registry
	Broker    EmbedBroker
	Cfg       *config.Config

	// LoginLimiter throttles POST /auth/login per client address. Nil
	// disables throttling (tests).
	LoginLimiter *middleware.RateLimiter

	// Metrics instruments, both optional.
	Metrics     *telemetry.ServerMetrics
	AuthMetrics *telemetry.AuthMetrics

	HealthHandler http.HandlerFunc
}

// corsOptions builds the CORS policy for the browser frontend. Credentials
// must be allowed or the browser drops the cookie on cross-site requests,
// which forces an explicit origin allowlist; a wildcard is rejected by
// browsers when credentials are in play.
func corsOptions(cfg *config.Config) cors.Options {
	return cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles the chi router: public login and health endpoints,
// then a protected group behind the cookie bridge and token validation.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(corsOptions(opts.Cfg)))

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	login := HandleLogin(opts.Issuer, opts.Cfg, opts.AuthMetrics)
	if opts.LoginLimiter != nil {
		r.Method(http.MethodPost, "/auth/login", opts.LoginLimiter.Handler(login))
	} else {
		r.Post("/auth/login", login)
	}

	// Everything below accepts the credential either as a bearer header or
	// as the session cookie; the bridge runs before validation so both
	// transports hit the same verification path.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CookieToBearer(opts.Cfg.Cookie.Name))

		// Logout clears the stale cookie even when the credential fails
		// validation, so a browser with an expired token can still shed it.
		r.With(clearCookieOnUnauthorized(opts.Cfg), middleware.RequireAuth(opts.Validator, opts.AuthMetrics)).
			Post("/auth/logout", HandleLogout(opts.Registry, opts.Cfg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(opts.Validator, opts.AuthMetrics))

			r.Get("/auth/check", HandleCheck())

			if opts.Broker != nil {
				r.Get("/embed/getEmbedToken", HandleGetEmbedToken(opts.Broker))
			}
		})
	})

	return r
}
