package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// MigrationStatus is one row of the migration table
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

func newMigrator(db *sql.DB, migrationsFS fs.FS) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrationsFS)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// RunMigrations applies every pending migration found at the root of migrationsFS
func RunMigrations(ctx context.Context, db *sql.DB, migrationsFS fs.FS, logger *zap.Logger) error {
	provider, err := newMigrator(db, migrationsFS)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("Applied migration",
			zap.String("file", res.Source.Path),
			zap.Duration("duration", res.Duration),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("Database schema up to date", zap.Int64("version", version), zap.Int("applied", len(results)))
	return nil
}

// GetMigrationStatus lists every migration in migrationsFS and whether it has run
func GetMigrationStatus(ctx context.Context, db *sql.DB, migrationsFS fs.FS) ([]MigrationStatus, error) {
	provider, err := newMigrator(db, migrationsFS)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
