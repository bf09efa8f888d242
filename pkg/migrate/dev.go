package migrate

import (
	"context"
	"fmt"

	"github.com/corelia-app/corelia-cart/pkg/config"
	"github.com/corelia-app/corelia-cart/pkg/db"
	"github.com/corelia-app/corelia-cart/pkg/logger"
)

// MaybeRun brings the local schema up to date when auto-migrate is enabled.
// A fresh gateway install has no schema at all, so this defaults to on.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running goose migrations")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
