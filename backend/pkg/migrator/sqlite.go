package migrator

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"irrigation-monitor/backend/pkg/utils"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/sqlite"
	_ "github.com/mattn/go-sqlite3"
)

type sqliteMigrator struct {
	db      *dbmate.DB
	sqlPath string
	l       *slog.Logger
}

// newSQLiteMigrator creates a SQLite migrator. sqlPath is a file path; in-memory databases
// would be gone before the application opened them, so they are rejected.
func newSQLiteMigrator(l *slog.Logger, fs embed.FS, sqlPath string) (*sqliteMigrator, error) {
	if sqlPath == "" {
		return nil, errors.New("sqlPath is required")
	}

	if _, err := fs.ReadDir("migrations"); err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	if strings.Contains(sqlPath, ":memory:") {
		return nil, errors.New("in-memory databases are not supported")
	}

	u, err := url.Parse("sqlite:" + sqlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	db := dbmate.New(u)
	db.Strict = true
	db.FS = fs
	db.MigrationsDir = []string{"migrations"}
	db.AutoDumpSchema = false

	l = l.With(slog.String("component", "db-migrator"), slog.String("dialect", "sqlite"))
	db.Log = utils.NewSlogWriter(l)

	return &sqliteMigrator{
		l:       l,
		db:      db,
		sqlPath: sqlPath,
	}, nil
}

// Migrate runs migrations on the SQLite database, creating the file if needed.
func (m *sqliteMigrator) Migrate() error {
	m.l.Info("Migrating database", slog.String("path", m.sqlPath))

	if err := m.db.CreateAndMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// DumpSchema dumps the SQLite database schema to the specified file path.
func (m *sqliteMigrator) DumpSchema(filePath string) error {
	m.db.SchemaFile = filePath

	m.l.Info("Dumping schema", slog.String("file", filePath))

	if err := m.db.DumpSchema(); err != nil {
		return fmt.Errorf("failed to dump schema: %w", err)
	}

	return nil
}
