package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"staff-loans/internal/common/config"
	"staff-loans/internal/common/database"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/store"
	"staff-loans/internal/store/httpstore"
	"staff-loans/internal/store/pgstore"
)

// backend is what the board commands read from.
type backend interface {
	store.ApplicationStore
	store.ApplicationLister
}

// openBackend is swapped out in tests.
var openBackend = func(c *cli.Context, cfg *config.Config, log logger.Logger) (backend, func(), error) {
	if cfg.Store.Backend == "http" {
		s := httpstore.New(cfg.Store.BaseURL, os.Getenv("LOAN_API_TOKEN"), config.GetDuration(cfg.Store.Timeout), log)
		return s, func() {}, nil
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Ping(c.Context); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	return pgstore.New(pg.DB, log), func() { pg.Close() }, nil
}

// loadConfig is swapped out in tests.
var loadConfig = func(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func cliLogger(c *cli.Context) logger.Logger {
	return logger.NewStructured(c.String("log-level"), "console")
}

// withBackend loads config, opens the store and runs fn against it.
func withBackend(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, b backend, log logger.Logger) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := cliLogger(c)

	b, closeFn, err := openBackend(c, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer closeFn()

	return fn(c.Context, cfg, b, log)
}
