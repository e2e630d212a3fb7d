package dialect

import (
	"io/fs"
	"testing"
)

func TestDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect    Dialect
		wantErr    bool
		driver     string
		persistent bool
	}{
		{SQLite, false, "sqlite3", true},
		{PostgreSQL, false, "pgx", true},
		{Memory, false, "", false},
		{Dialect("mysql"), true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			t.Parallel()

			if err := tt.dialect.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if got := tt.dialect.Driver(); got != tt.driver {
				t.Errorf("Driver() = %q, want %q", got, tt.driver)
			}

			if got := tt.dialect.Persistent(); got != tt.persistent {
				t.Errorf("Persistent() = %v, want %v", got, tt.persistent)
			}

			if tt.persistent {
				if _, err := fs.ReadDir(tt.dialect.MigrationFS(), "migrations"); err != nil {
					t.Errorf("MigrationFS() has no migrations: %v", err)
				}
			}
		})
	}
}
