package migrate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"gorm.io/gorm"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// RelayMigrationsTable keeps the audit schema version apart from any other
// migrations living in the same database.
const RelayMigrationsTable = "relay_schema_migrations"

// RunMigrations brings the relay audit schema up to date.
func RunMigrations(db *gorm.DB, migrationsPath string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("relay audit migrations: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: RelayMigrationsTable})
	if err != nil {
		return fmt.Errorf("relay audit migrations: driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("relay audit migrations: source %q: %w", migrationsPath, err)
	}
	// The driver holds one pooled connection; the gorm pool itself stays open.
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("failed to close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("relay audit schema up to date")
	case err != nil:
		return fmt.Errorf("relay audit migrations: up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("relay audit migrations: version: %w", err)
	}
	if dirty {
		return fmt.Errorf("relay audit migrations: schema version %d is dirty", version)
	}

	slog.Info("relay audit schema ready", "version", version, "table", RelayMigrationsTable)
	return nil
}
