package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a query matches no record.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
)

// DB wraps a sql.DB with its driver name so query placeholders can be
// rebound for PostgreSQL.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to the database named by driver ("sqlite3" or "postgres")
// and dsn, verifies the connection, and applies the schema.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite serializes writes; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}

	wrapped := &DB{DB: db, driver: driver}
	if err := wrapped.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return wrapped, nil
}

// NewDB wraps an existing connection without touching the schema. Used by
// tests with sqlmock.
func NewDB(db *sql.DB, driver string) *DB {
	return &DB{DB: db, driver: driver}
}

// Driver returns the driver name the connection was opened with.
func (d *DB) Driver() string { return d.driver }

// rebind rewrites ? placeholders to $1..$n for PostgreSQL. Queries in this
// package are written with ? throughout.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isDuplicate reports whether err is a uniqueness violation from either
// driver.
func isDuplicate(err error) bool {
	if isSQLiteDuplicate(err) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
