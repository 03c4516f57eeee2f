package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Open opens a database/sql handle. driver "sqlite" opens a local file (created when missing,
// ":memory:" is accepted), driver "libsql" opens a remote libsql url.
func Open(driver, uri string) (*sql.DB, error) {
	if uri == "" {
		return nil, fmt.Errorf("a database uri was not specified")
	}

	switch driver {
	case "libsql":
		return sql.Open("libsql", uri)
	case "sqlite":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	if uri != ":memory:" && !strings.HasPrefix(uri, "file:") {
		err := ensureFile(uri)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, err
	}
	// see https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance,
	// a single connection also keeps ":memory:" databases from being one per connection.
	db.SetMaxOpenConns(1)
	if uri != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func ensureFile(path string) error {
	_, err := os.Stat(path)
	if !os.IsNotExist(err) {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}
