package sqlite

import "embed"

//go:embed migrations/*.sql
var migrations embed.FS

// GetMigrationsFS returns the embedded sqlite migrations, rooted so that "migrations" is a directory.
func GetMigrationsFS() embed.FS {
	return migrations
}
