package accounts

import "embed"

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS exposes the bundled schema migrations so host
// applications can run them with their migration tool of choice.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
