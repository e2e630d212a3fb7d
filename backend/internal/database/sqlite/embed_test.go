package sqlite

import (
	"io/fs"
	"strings"
	"testing"
)

func TestGetMigrationsFS(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(GetMigrationsFS(), "migrations")
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("migrations directory is empty")
	}

	var prev string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			t.Errorf("Expected .sql file, got: %s", name)
		}

		if prev != "" && name < prev {
			t.Errorf("Migration files not in order: %s comes before %s", name, prev)
		}

		prev = name
	}
}

func TestMigrationFilesContainUpDown(t *testing.T) {
	t.Parallel()

	migrationsFS := GetMigrationsFS()

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	for _, entry := range entries {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			t.Fatalf("Failed to read %s: %v", entry.Name(), err)
		}

		for _, marker := range []string{"-- migrate:up", "-- migrate:down"} {
			if !strings.Contains(string(content), marker) {
				t.Errorf("%s is missing %q", entry.Name(), marker)
			}
		}
	}
}

func TestReadingsTableMigration(t *testing.T) {
	t.Parallel()

	content, err := fs.ReadFile(GetMigrationsFS(), "migrations/20250101000000_create_readings.sql")
	if err != nil {
		t.Fatalf("Failed to read readings migration: %v", err)
	}

	for _, col := range []string{"captured_at", "soil_moisture", "humidity", "temperature", "rainfall"} {
		if !strings.Contains(string(content), col) {
			t.Errorf("readings migration does not define column %q", col)
		}
	}
}
