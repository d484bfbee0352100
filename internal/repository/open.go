package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chacun/chacun-server-go/internal/config"
)

// Open returns the store selected by cfg, or nil when the driver is "none".
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return NewPostgresStore(ctx, cfg.URL, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
