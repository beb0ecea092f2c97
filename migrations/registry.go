package migrations

import (
	"fmt"
	"io/fs"
	"strings"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	rootPath   = "data/sql/migrations"
	sqliteDir  = "sqlite"
	upGlob     = "*.up.sql"
	downSuffix = ".down.sql"
)

// Source is one dialect's migration directory.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// Sources resolves the postgres and sqlite migration directories under root,
// defaulting to the embedded tree. Each directory must hold at least one up
// migration with a matching down file.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = CoreFS()
	}
	base, err := fs.Sub(root, rootPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
	}
	sqliteFS, err := fs.Sub(base, sqliteDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite migrations: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: rootPath, FS: base},
		{Dialect: DialectSQLite, Path: rootPath + "/" + sqliteDir, FS: sqliteFS},
	}
	for _, source := range sources {
		if err := checkPairs(source); err != nil {
			return nil, err
		}
	}
	return sources, nil
}

// SourceFor returns the embedded migrations for a database/sql driver name.
func SourceFor(driver string) (Source, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return Source{}, err
	}
	sources, err := Sources(nil)
	if err != nil {
		return Source{}, err
	}
	for _, source := range sources {
		if source.Dialect == dialect {
			return source, nil
		}
	}
	return Source{}, fmt.Errorf("migrations: no migrations for dialect %q", dialect)
}

// Register hands the driver's migration filesystem to register, typically a
// persistence client's RegisterSQLMigrations.
func Register(driver string, register func(fsys fs.FS)) (Source, error) {
	if register == nil {
		return Source{}, fmt.Errorf("migrations: register function is required")
	}
	source, err := SourceFor(driver)
	if err != nil {
		return Source{}, err
	}
	register(source.FS)
	return source, nil
}

// DialectFor maps a database/sql driver name onto a migration dialect.
func DialectFor(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "pgx", "pq":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

func checkPairs(source Source) error {
	ups, err := fs.Glob(source.FS, upGlob)
	if err != nil {
		return fmt.Errorf("migrations: glob %s: %w", source.Path, err)
	}
	if len(ups) == 0 {
		return fmt.Errorf("migrations: %s has no up migrations", source.Path)
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + downSuffix
		if _, err := fs.Stat(source.FS, down); err != nil {
			return fmt.Errorf("migrations: %s/%s has no down migration", source.Path, up)
		}
	}
	return nil
}
