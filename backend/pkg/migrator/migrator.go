package migrator

import (
	"embed"
	"fmt"
	"log/slog"

	"irrigation-monitor/backend/pkg/dialect"
)

// Migrator defines the interface for database migrations and schema operations.
type Migrator interface {
	Migrate() error
	DumpSchema(outputPath string) error
}

// New creates a migrator for the given dialect using the dialect's embedded migrations.
//
//nolint:ireturn // Returns Migrator interface
func New(l *slog.Logger, d dialect.Dialect, connString string) (Migrator, error) {
	return NewWithFS(l, d, d.MigrationFS(), connString)
}

// NewWithFS is like New but reads migrations from fs instead of the dialect's embedded set.
//
//nolint:ireturn // Returns Migrator interface
func NewWithFS(l *slog.Logger, d dialect.Dialect, fs embed.FS, connString string) (Migrator, error) {
	switch d {
	case dialect.SQLite:
		return newSQLiteMigrator(l, fs, connString)
	case dialect.PostgreSQL:
		return newPostgresMigrator(l, fs, connString)
	default:
		return nil, fmt.Errorf("dialect %q has no migrations", d)
	}
}
