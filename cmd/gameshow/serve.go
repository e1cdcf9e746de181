package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/config"
	"github.com/gameshowhq/gameshow/internal/content"
	"github.com/gameshowhq/gameshow/internal/gamecode"
	"github.com/gameshowhq/gameshow/internal/server"
	"github.com/gameshowhq/gameshow/internal/store"
)

// ServeCmd runs the HTTP and websocket server.
type ServeCmd struct {
	Config string `kong:"default='gameshow.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg, c.Debug)

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	provider := buildProvider(cfg, logger)

	srv := server.New(cfg, st, provider, logger,
		server.WithMonitor(server.NewMonitor(os.Stdout)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting gameshow server", "version", version, "addr", cfg.ServerAddress(), "store", cfg.Store.Backend)
	return srv.Run(ctx)
}

func setupLogger(cfg *config.Config, debug bool) *log.Logger {
	level := log.InfoLevel
	if parsed, err := log.ParseLevel(cfg.Server.LogLevel); err == nil {
		level = parsed
	}
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemory(), nil
	case "redis":
		return store.NewRedis(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildProvider returns the remote generator client when one is
// configured, otherwise the built-in static pool.
func buildProvider(cfg *config.Config, logger *log.Logger) content.Provider {
	if cfg.Content.GeneratorURL == "" {
		return content.NewStatic(nil)
	}
	return content.NewClient(
		cfg.Content.GeneratorURL,
		cfg.Content.APIKey,
		time.Duration(cfg.Content.TimeoutSeconds)*time.Second,
		logger,
		content.WithMaxRetries(cfg.Content.MaxRetries),
	)
}

// CodeCmd prints fresh join codes, handy for smoke tests.
type CodeCmd struct {
	N int `kong:"default='1',help='How many codes to generate'"`
}

func (c *CodeCmd) Run() error {
	for i := 0; i < c.N; i++ {
		fmt.Println(gamecode.Format(gamecode.Generate()))
	}
	return nil
}
