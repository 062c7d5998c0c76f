package migrate

import (
	"context"

	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/db"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
)

// MaybeRunDev migrates on boot in dev when the auto-migrate flag is set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "dialect": client.Dialect()})
	logg.Info(ctx, "running migrations (dev auto-run)")

	if err := Up(ctx, client, DefaultDir); err != nil {
		return err
	}

	logg.Info(ctx, "migrations completed")
	return nil
}
