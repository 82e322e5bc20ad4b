package sqliteutil

import (
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func isRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "wss://") ||
		strings.HasPrefix(path, "https://")
}

// OpenDB opens `path` as a local sqlite file (":memory:" included) or,
// given a libsql:// url, as a remote turso database, and applies the
// schema. Re-running the schema against an existing database is fine.
func OpenDB(schema, path string) (*sql.DB, error) {
	driver := "sqlite"
	if isRemote(path) {
		driver = "libsql"
	}

	database, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		database.Close()
		return nil, err
	}
	return database, nil
}
