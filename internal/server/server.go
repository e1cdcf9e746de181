package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gameshowhq/gameshow/internal/config"
	"github.com/gameshowhq/gameshow/internal/content"
	"github.com/gameshowhq/gameshow/internal/store"
)

// Server ties the HTTP API, the replication hub, and the game service into
// one process.
type Server struct {
	cfg    *config.Config
	logger *log.Logger
	hub    *Hub
	svc    *GameService
	api    *API
	http   *http.Server
}

// Option adjusts an assembled server.
type Option func(*Server)

// WithMonitor attaches an operator console that renders standings and the
// final summary for games started over the API.
func WithMonitor(m *Monitor) Option {
	return func(s *Server) { s.api.monitor = m }
}

// New assembles a server from its backing store and content provider.
func New(cfg *config.Config, st store.Store, provider content.Provider, logger *log.Logger, opts ...Option) *Server {
	hub := NewHub(logger)
	svc := NewGameService(st, hub, provider, cfg.Game, logger)
	api := NewAPI(svc, hub, cfg.Server.PublicURL, cfg.Server.CORSOrigins, logger)

	s := &Server{
		cfg:    cfg,
		logger: logger.WithPrefix("server"),
		hub:    hub,
		svc:    svc,
		api:    api,
		http: &http.Server{
			Addr:              cfg.ServerAddress(),
			Handler:           withCORS(cfg.Server.CORSOrigins, api.Routes()),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Service exposes the game service for embedded host tooling.
func (s *Server) Service() *GameService { return s.svc }

// Hub exposes the replication hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves until the context ends, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run()
		return nil
	})

	g.Go(func() error {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.http.Shutdown(shutdownCtx)
		s.hub.Stop()
		return err
	})

	return g.Wait()
}

// withCORS answers preflight and stamps allow headers for configured
// origins. An empty origin list leaves responses untouched.
func withCORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}
	allowed := make(map[string]bool, len(origins))
	allowAll := false
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
