//go:build !cgo

package store

// Without cgo the go-sqlite3 driver is a stub that cannot produce
// sqlite3.Error values, so no error can be a SQLite duplicate.
func isSQLiteDuplicate(err error) bool {
	return false
}
