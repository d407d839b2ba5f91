package admin

import (
	"context"
	"fmt"

	"github.com/fieldstack/mechanic/internal/config"
	"github.com/fieldstack/mechanic/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// getDBPool loads the config and opens a connection pool for one-shot admin
// commands.
func getDBPool(ctx context.Context) (*pgxpool.Pool, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, cfg, nil
}
