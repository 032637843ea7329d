package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/handlers"
	"github.com/SiameseJames22/2DWORLD/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AccountsHandler *handlers.AccountsHandler
	HealthHandler   *handlers.HealthHandler
	Sessions        *middleware.SessionRegistry
	Log             zerolog.Logger
	Secure          func(http.Handler) http.Handler
	CORS            func(http.Handler) http.Handler
	IPRateLimit     func(http.Handler) http.Handler
	Metrics         bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(cfg.Sessions.Handler)
		r.Use(chimid.SetHeader("Content-Type", "application/json"))
		r.Get("/session", cfg.AccountsHandler.Session)
		r.Group(func(r chi.Router) {
			r.Use(chimid.AllowContentType("application/json"))
			r.Post("/register", cfg.AccountsHandler.Register)
			r.Post("/login", cfg.AccountsHandler.Login)
			r.Post("/logout", cfg.AccountsHandler.Logout)
			r.Post("/reset-password", cfg.AccountsHandler.ResetPassword)
			r.Post("/resend-verification", cfg.AccountsHandler.ResendVerification)
			r.Post("/change-email", cfg.AccountsHandler.ChangeEmail)
			r.Post("/phone/link", cfg.AccountsHandler.LinkPhone)
			r.Post("/phone/confirm", cfg.AccountsHandler.ConfirmPhone)
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
