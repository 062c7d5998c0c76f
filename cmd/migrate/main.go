// Command migrate manages the storefront's goose migrations on postgres.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/db"
	"github.com/angelmondragon/farmstore-backend/pkg/logger"
	"github.com/angelmondragon/farmstore-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "directory holding the storefront SQL migrations")
	flag.StringVar(&opts.name, "name", "", "name for -cmd=create, e.g. add_product_sale_window")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "storefront config did not load", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if err := run(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, fmt.Sprintf("migrate %s failed", opts.cmd), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required to create a migration")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now().UTC())
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "path", path), "created storefront migration")
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		logg.Info(ctx, "storefront migrations are valid")
		return nil
	case "up", "down", "status":
	case "version":
		if opts.version == "" {
			return errors.New("-version is required to migrate to a version")
		}
	default:
		return fmt.Errorf("unknown -cmd %q", opts.cmd)
	}

	if cfg.FeatureFlags.UseSQLite {
		return errors.New("goose migrations target postgres; the sqlite store builds its schema on api startup")
	}
	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return fmt.Errorf("connect storefront database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("storefront sql handle: %w", err)
	}

	if opts.cmd == "version" {
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	}
	if err := migrate.Run(ctx, sqlDB, opts.dir, opts.cmd); err != nil {
		return err
	}
	logg.Info(ctx, fmt.Sprintf("goose %s finished", opts.cmd))
	return nil
}
