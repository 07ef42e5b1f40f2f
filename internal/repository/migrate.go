package repository

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigrateCommand selects what Store.Migrate does.
type MigrateCommand string

const (
	MigrateUp      MigrateCommand = "up"
	MigrateDown    MigrateCommand = "down"
	MigrateVersion MigrateCommand = "version"
)

func migratePostgres(url string, cmd MigrateCommand) (uint, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}

	// 専用接続で実行し、サーバーのプールを借りない
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, pgx5URL(url))
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("close migrator failed", "source_error", srcErr, "db_error", dbErr)
		}
	}()
	return runMigration(m, cmd)
}

// pgx5URL rewrites a postgres:// URL to the scheme the migrate pgx/v5 driver registers.
func pgx5URL(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

func migrateSQLite(db *SQLiteDB, cmd MigrateCommand) (uint, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db.Writer, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}
	return runMigration(m, cmd)
}

// runMigration applies cmd and reports the resulting schema version. Up is
// safe to call on every startup; already-applied migrations are skipped.
func runMigration(m *migrate.Migrate, cmd MigrateCommand) (uint, error) {
	switch cmd {
	case MigrateUp:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return 0, fmt.Errorf("run migrations: %w", err)
		}
	case MigrateDown:
		if err := m.Steps(-1); err != nil {
			return 0, fmt.Errorf("roll back migration: %w", err)
		}
	case MigrateVersion:
	default:
		return 0, fmt.Errorf("unknown migrate command %q", cmd)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
