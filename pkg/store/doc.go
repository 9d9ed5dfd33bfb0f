// Package store implements persistence for the LMS on database/sql. It
// supports SQLite and PostgreSQL, selected by configuration.
//
// User records for the three role partitions live in three physical tables,
// each with its own unique username and email indexes, but are accessed
// through a single UserStore that dispatches on the role discriminant. The
// UserStore satisfies auth.CredentialStore.
package store
