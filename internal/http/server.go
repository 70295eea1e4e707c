package httpserver

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinemateca/internal/auth"
	"github.com/Clark-Hu/cinemateca/internal/config"
	"github.com/Clark-Hu/cinemateca/internal/media"
	"github.com/Clark-Hu/cinemateca/internal/metrics"
	"github.com/Clark-Hu/cinemateca/internal/repository"
	"github.com/Clark-Hu/cinemateca/internal/service"
)

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Health  HealthChecker
	Repo    *repository.Repository
	Movies  *service.Movies
	Reviews *service.Reviews
	Media   *media.Resolver
	Tokens  *auth.Tokens
	Logger  zerolog.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	health  HealthChecker
	repo    *repository.Repository
	movies  *service.Movies
	reviews *service.Reviews
	media   *media.Resolver
	tokens  *auth.Tokens
	logger  zerolog.Logger
	pages   *template.Template
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOriginList(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Location", "X-Request-ID"},
		MaxAge:         300,
	}))

	s := &Server{
		cfg:     cfg,
		health:  deps.Health,
		repo:    deps.Repo,
		movies:  deps.Movies,
		reviews: deps.Reviews,
		media:   deps.Media,
		tokens:  deps.Tokens,
		logger:  deps.Logger,
		pages:   parsePages(),
		router:  r,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.cfg.AuthRateLimit > 0 {
				r.Use(httprate.LimitByIP(s.cfg.AuthRateLimit, time.Minute))
			}
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})
		r.With(s.requireAuth).Get("/me", s.handleMe)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		for path, kind := range termRoutes {
			r.Get("/"+path, s.handleListTerms(kind))
			r.Get("/"+path+"/{id}", s.handleGetTerm(kind))
			r.With(s.requireStaff).Post("/"+path, s.handleCreateTerm(kind))
		}

		r.Route("/people", func(r chi.Router) {
			r.Get("/", s.handleListPeople)
			r.With(s.requireAuth).Post("/", s.handleCreatePerson)
			r.Get("/{id}", s.handleGetPerson)
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", s.handleListMovies)
			r.With(s.requireAuth).Post("/", s.handleCreateMovie)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMovie)
				r.With(s.requireAuth).Put("/", s.handleUpdateMovie)
				r.With(s.requireAuth).Delete("/", s.handleDeleteMovie)
			})
		})

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", s.handleListCredits)
			r.With(s.requireAuth).Post("/", s.handleCreateCredit)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCredit)
				r.With(s.requireAuth).Put("/", s.handleUpdateCredit)
				r.With(s.requireAuth).Delete("/", s.handleDeleteCredit)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", s.handleListVideos)
			r.With(s.requireAuth).Post("/", s.handleCreateVideo)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetVideo)
				r.With(s.requireAuth).Put("/", s.handleUpdateVideo)
				r.With(s.requireAuth).Delete("/", s.handleDeleteVideo)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", s.handleListReviews)
			r.With(s.requireAuth).Post("/", s.handleSubmitReview)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetReview)
				r.With(s.requireAuth).Patch("/", s.handleUpdateReview)
				r.With(s.requireAuth).Delete("/", s.handleDeleteReview)
			})
		})

		for path, kind := range listRoutes {
			r.Route("/"+path, func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/", s.handleListItems(kind))
				r.Post("/", s.handleAddItem(kind))
				r.Delete("/{id}", s.handleRemoveItem(kind))
			})
		}
	})

	s.router.Get("/", s.handleIndexPage)
	s.router.Get("/play/{filename}", s.handlePlayPage)
	s.router.Get("/media/{filename}", s.handleMedia)
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
