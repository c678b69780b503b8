package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jask/finmgr/internal/backend"
	"github.com/jask/finmgr/internal/config"
	"github.com/jask/finmgr/internal/database"
)

// openBackend migrates and opens the local database and seeds the configured
// admin on first start.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend.Backend, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.OpenAndMigrate(cfg.Database.Path, cfg.Database.Migrations)
	if err != nil {
		return nil, nil, err
	}
	// an admin is only seeded when its password is available
	admin, password := cfg.API.Username, cfg.API.Password()
	if password == "" {
		admin = ""
	}
	if err := database.SeedDefaults(ctx, db, admin, password); err != nil {
		db.Close()
		return nil, nil, err
	}
	b := backend.New(db, backend.Options{
		BackupDir: cfg.Backup.Dir,
		Location:  cfg.UI.Location(),
		Logger:    logger,
	})
	if err := b.PruneSessions(ctx); err != nil {
		logger.Warn("prune sessions", "err", err)
	}
	return b, db, nil
}
