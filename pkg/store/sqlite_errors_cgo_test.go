//go:build cgo

package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduelevate/lms/pkg/auth"
)

func TestUserStore_CreateDuplicateIsConflict(t *testing.T) {
	s, mock := newMockStore(t, DriverSQLite)

	mock.ExpectExec("INSERT INTO students").
		WillReturnError(sqlite3.Error{
			Code:         sqlite3.ErrConstraint,
			ExtendedCode: sqlite3.ErrConstraintUnique,
		})

	_, err := s.Create(context.Background(), &auth.User{
		Role: auth.RoleStudent, Username: "alice", Email: "alice@example.com",
	})
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestEnrollmentStore_CreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewEnrollmentStore(NewDB(db, DriverSQLite))

	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(5, 3).
		WillReturnError(sqlite3.Error{
			Code:         sqlite3.ErrConstraint,
			ExtendedCode: sqlite3.ErrConstraintUnique,
		})

	_, err = s.Create(context.Background(), 5, 3)
	assert.ErrorIs(t, err, ErrDuplicate)
}
