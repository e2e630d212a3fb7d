//go:build cgo

package migrator

import (
	"database/sql"
	"embed"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"irrigation-monitor/backend/pkg/dialect"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestNew(t *testing.T) {
	t.Parallel()

	logger := newTestLogger()

	t.Run("valid sqlite migrator", func(t *testing.T) {
		t.Parallel()

		m, err := New(logger, dialect.SQLite, filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		if m == nil {
			t.Fatal("New() returned nil")
		}
	})

	t.Run("empty sqlPath", func(t *testing.T) {
		t.Parallel()

		_, err := New(logger, dialect.SQLite, "")
		if err == nil || !strings.Contains(err.Error(), "sqlPath is required") {
			t.Errorf("Expected 'sqlPath is required' error, got: %v", err)
		}
	})

	t.Run("in-memory sqlite", func(t *testing.T) {
		t.Parallel()

		if _, err := New(logger, dialect.SQLite, ":memory:"); err == nil {
			t.Error("New() should reject in-memory databases")
		}
	})

	t.Run("memory dialect", func(t *testing.T) {
		t.Parallel()

		if _, err := New(logger, dialect.Memory, "unused"); err == nil {
			t.Error("New() should return error for a dialect without migrations")
		}
	})

	t.Run("invalid embed fs", func(t *testing.T) {
		t.Parallel()

		var emptyFS embed.FS

		_, err := NewWithFS(logger, dialect.SQLite, emptyFS, filepath.Join(t.TempDir(), "test.db"))
		if err == nil {
			t.Error("NewWithFS() should return error for embed.FS without migrations directory")
		}
	})

	t.Run("postgres requires url", func(t *testing.T) {
		t.Parallel()

		if _, err := New(logger, dialect.PostgreSQL, ""); err == nil {
			t.Error("New() should return error for empty connection string")
		}
	})
}

func TestMigrator_Migrate(t *testing.T) {
	t.Parallel()

	dbFile := filepath.Join(t.TempDir(), "test.db")

	m, err := New(newTestLogger(), dialect.SQLite, dbFile)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Migrate(); err != nil {
		t.Fatalf("First Migrate() error = %v", err)
	}

	if err := m.Migrate(); err != nil {
		t.Fatalf("Second Migrate() error = %v", err)
	}

	db, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM readings").Scan(&count); err != nil {
		t.Fatalf("readings table missing after migrate: %v", err)
	}

	if count != 0 {
		t.Errorf("readings count = %d, want 0", count)
	}
}

func TestMigrator_DumpSchema(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sqlite3"); err != nil {
		t.Skip("sqlite3 binary not available for schema dumps")
	}

	tmpDir := t.TempDir()
	schemaFile := filepath.Join(tmpDir, "schema.sql")

	m, err := New(newTestLogger(), dialect.SQLite, filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := m.DumpSchema(schemaFile); err != nil {
		t.Fatalf("DumpSchema() error = %v", err)
	}

	first, err := os.ReadFile(schemaFile)
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}

	if !strings.Contains(string(first), "CREATE TABLE readings") {
		t.Error("schema does not contain the readings table")
	}

	if err := m.DumpSchema(schemaFile); err != nil {
		t.Fatalf("Second DumpSchema() error = %v", err)
	}

	second, err := os.ReadFile(schemaFile)
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}

	if string(first) != string(second) {
		t.Error("DumpSchema() should produce consistent output")
	}
}
