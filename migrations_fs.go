package freitool

import (
	"io/fs"

	"github.com/andersonfds/freitool/migrations"
)

// GetMigrationsFS returns the embedded run journal migrations for hosts that
// apply schema changes with their own tooling.
func GetMigrationsFS() fs.FS {
	return migrations.FS()
}
