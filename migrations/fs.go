package migrations

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the relay schema, with sqlite alternatives under
// data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// CoreFS returns the embedded relay migration tree.
func CoreFS() fs.FS {
	return migrationsFS
}
