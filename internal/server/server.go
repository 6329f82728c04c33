// Package server wires the HTTP handlers onto one router.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bookshelf/internal/book"
	"bookshelf/internal/cover"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/config"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/recommend"
)

const pingTimeout = 500 * time.Millisecond

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handlers the router serves. Optional handlers left nil are
// not routed.
type Deps struct {
	DB        Pinger
	Books     *book.HTTPHandler
	Recommend *recommend.HTTPHandler
	Covers    *cover.HTTPHandler
	Dashboard http.Handler
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	log     logger.Logger
	limiter *httpx.RateLimitMiddleware
}

// New builds the router and the HTTP server around it.
func New(cfg *config.Config, log logger.Logger, d Deps) *Server {
	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, log, limiter, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return &Server{http: s, log: log, limiter: limiter}
}

// NewRouter registers every route. Feature flags in cfg decide whether the
// dashboard and recommendation routes exist.
func NewRouter(cfg *config.Config, log logger.Logger, limiter *httpx.RateLimitMiddleware, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.GetHead)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.RecoveryMiddleware(log))
	r.Use(httpx.AccessLogMiddleware(log))
	r.Use(httpx.SecurityHeadersMiddleware(cfg.EnableHSTS))
	r.Use(httpx.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/health", health(d.DB))
	r.Get("/readyz", ready(d.DB))

	if d.Covers != nil {
		r.Get("/covers/{name}", d.Covers.Serve)
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(httpx.AuthMiddleware(cfg.AuthJWTSecret))

		if cfg.EnableDashboard && d.Dashboard != nil {
			r.Method(http.MethodGet, "/dashboard", d.Dashboard)
		}

		api := func(r chi.Router) {
			if d.Covers != nil {
				r.Post("/covers", d.Covers.Upload)
			}

			r.Group(func(r chi.Router) {
				r.Use(httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))

				r.Route("/books", func(r chi.Router) {
					r.Get("/", d.Books.List)
					r.Post("/", d.Books.Create)
					r.Get("/stats", d.Books.Stats)
					r.Get("/{id}", d.Books.Get)
					r.Put("/{id}", d.Books.Update)
					r.Patch("/{id}", d.Books.Update)
					r.Delete("/{id}", d.Books.Delete)
				})

				if cfg.EnableRecommendations && d.Recommend != nil {
					r.Get("/recommendations", d.Recommend.Get)
					r.Post("/recommendations", d.Recommend.Post)
				}
			})
		}
		if cfg.BasePath == "" {
			r.Group(api)
		} else {
			r.Route(cfg.BasePath, api)
		}
	})

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "up"
		if err := ping(r.Context(), db); err != nil {
			status = "down"
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ok", "db": status}, nil)
	}
}

func ready(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context(), db); err != nil {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
			return
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ready"}, nil)
	}
}

func ping(ctx context.Context, db Pinger) error {
	if db == nil {
		return errors.New("no database")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.Ping(ctx)
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", logger.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("HTTP server shutting down")
	defer s.limiter.Close()
	return s.http.Shutdown(ctx)
}
