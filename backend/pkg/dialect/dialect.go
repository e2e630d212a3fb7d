package dialect

import (
	"embed"
	"fmt"

	"irrigation-monitor/backend/internal/database/postgres"
	"irrigation-monitor/backend/internal/database/sqlite"
)

type Dialect string

const (
	SQLite     Dialect = "sqlite"
	PostgreSQL Dialect = "postgres"
	// Memory keeps readings in process memory only; nothing survives a restart.
	Memory Dialect = "memory"
)

func (d Dialect) Validate() error {
	switch d {
	case SQLite, PostgreSQL, Memory:
		return nil
	default:
		return fmt.Errorf("unsupported dialect: %s", d)
	}
}

func (d Dialect) String() string {
	return string(d)
}

// Driver returns the database/sql driver name, or "" when the dialect has none.
func (d Dialect) Driver() string {
	switch d {
	case SQLite:
		return "sqlite3"
	case PostgreSQL:
		return "pgx"
	default:
		return ""
	}
}

// Persistent reports whether readings survive a restart.
func (d Dialect) Persistent() bool {
	return d == SQLite || d == PostgreSQL
}

func (d Dialect) MigrationFS() embed.FS {
	switch d {
	case SQLite:
		return sqlite.GetMigrationsFS()
	case PostgreSQL:
		return postgres.GetMigrationsFS()
	default:
		return embed.FS{}
	}
}
