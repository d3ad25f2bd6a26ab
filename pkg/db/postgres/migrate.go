package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"fitsync/pkg/logger"
)

const (
	LogMigrationsUpToDate = "schema is up to date"
	LogMigrationsApplied  = "schema migrated"

	ErrCreateMigrationInstance = "failed to create migration instance"
	ErrApplyMigrations         = "failed to apply migrations"
	ErrReadSchemaVersion       = "failed to read schema version"
)

// ErrDirtySchema - предыдущая миграция прервалась, схема требует ручного вмешательства.
var ErrDirtySchema = errors.New("schema is dirty")

// MigrateDSN применяет миграции из migrationsPath и возвращает итоговую версию схемы.
func MigrateDSN(ctx context.Context, dsn string, migrationsPath string) (uint, error) {
	log := logger.Log(ctx).With(zap.String("path", migrationsPath))

	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		log.Error(ctx, ErrCreateMigrationInstance, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrCreateMigrationInstance, err)
	}
	defer m.Close()

	before, dirty, err := version(m)
	if err != nil {
		return 0, err
	}
	if dirty {
		return before, fmt.Errorf("%s: version %d: %w", ErrApplyMigrations, before, ErrDirtySchema)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info(ctx, LogMigrationsUpToDate, zap.Uint("version", before))
			return before, nil
		}
		log.Error(ctx, ErrApplyMigrations, zap.Error(err))
		return before, fmt.Errorf("%s: %w", ErrApplyMigrations, err)
	}

	after, _, err := version(m)
	if err != nil {
		return 0, err
	}
	log.Info(ctx, LogMigrationsApplied, zap.Uint("from", before), zap.Uint("to", after))
	return after, nil
}

func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", ErrReadSchemaVersion, err)
	}
	return v, dirty, nil
}
