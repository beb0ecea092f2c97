package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresAndSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Dialect != DialectPostgres || sources[1].Dialect != DialectSQLite {
		t.Fatalf("unexpected dialect order: %q, %q", sources[0].Dialect, sources[1].Dialect)
	}
	for _, source := range sources {
		matches, err := fs.Glob(source.FS, "*.up.sql")
		if err != nil {
			t.Fatalf("glob %s: %v", source.Dialect, err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected two %s up migrations, got %v", source.Dialect, matches)
		}
	}
}

func TestSources_RejectsMissingDownMigration(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/00001_a.up.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/00001_a.down.sql":      {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_a.up.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Sources(root); err == nil || !strings.Contains(err.Error(), "no down migration") {
		t.Fatalf("expected missing down migration error, got %v", err)
	}
}

func TestRegister_HandsDriverFilesystemToCallback(t *testing.T) {
	var registered []fs.FS
	source, err := Register("sqlite3", func(fsys fs.FS) {
		registered = append(registered, fsys)
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if source.Dialect != DialectSQLite {
		t.Fatalf("expected sqlite source, got %q", source.Dialect)
	}
	if len(registered) != 1 {
		t.Fatalf("expected one registration, got %d", len(registered))
	}
	if _, err := fs.Stat(registered[0], "00001_relay_core_schema.up.sql"); err != nil {
		t.Fatalf("expected sqlite migrations in registered filesystem: %v", err)
	}
}

func TestRegister_Errors(t *testing.T) {
	if _, err := Register("sqlite3", nil); err == nil {
		t.Fatalf("expected error for nil register function")
	}
	called := false
	if _, err := Register("mysql", func(fs.FS) { called = true }); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if called {
		t.Fatalf("expected no registration for unsupported driver")
	}
}

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"sqlite3":  DialectSQLite,
		"postgres": DialectPostgres,
		" PQ ":     DialectPostgres,
	}
	for driver, expected := range cases {
		dialect, err := DialectFor(driver)
		if err != nil {
			t.Fatalf("dialect for %q: %v", driver, err)
		}
		if dialect != expected {
			t.Fatalf("expected %q for %q, got %q", expected, driver, dialect)
		}
	}
	if _, err := DialectFor("mysql"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := CoreFS()
	names := []string{
		"00001_relay_core_schema",
		"00002_relay_webhook_deliveries",
	}
	for _, name := range names {
		for _, dir := range []string{"data/sql/migrations", "data/sql/migrations/sqlite"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				migrationPath := dir + "/" + name + suffix
				content, err := fs.ReadFile(root, migrationPath)
				if err != nil {
					t.Fatalf("read migration %s: %v", migrationPath, err)
				}
				if strings.TrimSpace(string(content)) == "" {
					t.Fatalf("expected migration %s to have SQL content", migrationPath)
				}
			}
		}
	}
}

func TestSQLiteRelaySchema_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-relay-schema?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(CoreFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	ups := []string{
		"00001_relay_core_schema.up.sql",
		"00002_relay_webhook_deliveries.up.sql",
	}
	for _, migration := range ups {
		if err := execSQLMigration(context.Background(), db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	requiredTables := []string{
		"relay_events",
		"relay_contracts",
		"relay_deliveries",
		"relay_notifications",
		"relay_webhook_deliveries",
	}
	for _, tableName := range requiredTables {
		if count := countSQLiteObjects(t, db, "table", tableName); count != 1 {
			t.Fatalf("expected table %s to exist after up migration", tableName)
		}
	}

	insert := `INSERT INTO relay_webhook_deliveries (id, provider_id, event_id, status) VALUES (?, ?, ?, ?)`
	if _, err := db.ExecContext(context.Background(), insert, "wd_1", "lalamove", "evt_1", "pending"); err != nil {
		t.Fatalf("insert webhook delivery: %v", err)
	}
	if _, err := db.ExecContext(context.Background(), insert, "wd_2", "lalamove", "evt_1", "pending"); err == nil {
		t.Fatalf("expected unique provider/event violation")
	}

	downs := []string{
		"00002_relay_webhook_deliveries.down.sql",
		"00001_relay_core_schema.down.sql",
	}
	for _, migration := range downs {
		if err := execSQLMigration(context.Background(), db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}
	for _, tableName := range requiredTables {
		if count := countSQLiteObjects(t, db, "table", tableName); count != 0 {
			t.Fatalf("expected table %s to be dropped after down migration", tableName)
		}
	}
}

func countSQLiteObjects(t *testing.T, db *sql.DB, kind string, name string) int {
	t.Helper()
	var count int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type=? AND name=?`,
		kind,
		name,
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master for %s: %v", name, err)
	}
	return count
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
