package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"portfolioTracker/internal/config"
	"portfolioTracker/internal/market"
	"portfolioTracker/internal/report"
	"portfolioTracker/internal/storage"
	"portfolioTracker/internal/valuation"
)

// Server exposes the portfolio CRUD glue and the computation endpoints.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	cfg     *config.Config
	repo    *storage.PortfolioRepository
	engine  *valuation.Engine
	emitter *report.Emitter
	market  market.Provider
}

type Deps struct {
	Config  *config.Config
	Log     zerolog.Logger
	Repo    *storage.PortfolioRepository
	Engine  *valuation.Engine
	Emitter *report.Emitter
	Market  market.Provider
}

func New(deps Deps) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     deps.Log.With().Str("component", "server").Logger(),
		cfg:     deps.Config,
		repo:    deps.Repo,
		engine:  deps.Engine,
		emitter: deps.Emitter,
		market:  deps.Market,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", deps.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // computations fan out to market and FX providers
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(90 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", s.handleListPortfolios)
			r.Post("/", s.handleCreatePortfolio)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPortfolio)
				r.Put("/", s.handleRenamePortfolio)
				r.Delete("/", s.handleDeletePortfolio)
				r.Post("/items", s.handleAddItem)
				r.Post("/compute", s.handleCompute)
			})
		})
		r.Route("/items/{id}", func(r chi.Router) {
			r.Put("/", s.handleUpdateItem)
			r.Delete("/", s.handleDeleteItem)
		})
	})

	// Computed artifacts (CSV records, chart images)
	fs := http.StripPrefix("/media/", http.FileServer(http.Dir(s.cfg.MediaDir)))
	s.router.Get("/media/*", fs.ServeHTTP)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
