package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eduelevate/lms/pkg/auth"
)

// UserStore persists credential records for the three role partitions. It
// satisfies auth.CredentialStore: lookups that match nothing return
// auth.ErrNotFound and uniqueness violations surface as auth.ErrConflict.
type UserStore struct {
	db *DB
}

// NewUserStore creates a user store on the given connection.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

const userBaseColumns = "id, username, email, password_hash, first_name, last_name, created_at, updated_at"
const instructorColumns = userBaseColumns + ", department, bio, specialization"

func tableFor(role auth.Role) (string, error) {
	switch role {
	case auth.RoleStudent:
		return "students", nil
	case auth.RoleInstructor:
		return "instructors", nil
	case auth.RoleAdmin:
		return "admins", nil
	default:
		return "", fmt.Errorf("%w: %q", auth.ErrInvalidRole, role)
	}
}

func columnsFor(role auth.Role) string {
	if role == auth.RoleInstructor {
		return instructorColumns
	}
	return userBaseColumns
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(role auth.Role, row rowScanner) (*auth.User, error) {
	u := &auth.User{Role: role}
	dest := []interface{}{
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt,
	}
	if role == auth.RoleInstructor {
		dest = append(dest, &u.Department, &u.Bio, &u.Specialization)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) findBy(ctx context.Context, role auth.Role, column, value string) (*auth.User, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := s.db.rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ?", columnsFor(role), table, column))
	u, err := scanUser(role, s.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s by %s: %w", table, column, err)
	}
	return u, nil
}

// FindByUsername looks a user up within a single role partition.
func (s *UserStore) FindByUsername(ctx context.Context, role auth.Role, username string) (*auth.User, error) {
	return s.findBy(ctx, role, "username", username)
}

// FindByEmail looks a user up by email within a single role partition.
func (s *UserStore) FindByEmail(ctx context.Context, role auth.Role, email string) (*auth.User, error) {
	return s.findBy(ctx, role, "email", email)
}

// FindByID looks a user up by id within a single role partition.
func (s *UserStore) FindByID(ctx context.Context, role auth.Role, id int) (*auth.User, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := s.db.rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = ?", columnsFor(role), table))
	u, err := scanUser(role, s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s by id: %w", table, err)
	}
	return u, nil
}

// FindAll returns every record in a role partition ordered by id.
func (s *UserStore) FindAll(ctx context.Context, role auth.Role) ([]*auth.User, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", columnsFor(role), table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		u, err := scanUser(role, rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) exists(ctx context.Context, role auth.Role, column, value string) (bool, error) {
	table, err := tableFor(role)
	if err != nil {
		return false, err
	}
	query := s.db.rebind(fmt.Sprintf(
		"SELECT COUNT(1) FROM %s WHERE %s = ?", table, column))
	var n int
	if err := s.db.QueryRowContext(ctx, query, value).Scan(&n); err != nil {
		return false, fmt.Errorf("checking %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

// ExistsByUsername reports whether the username exists in one partition.
func (s *UserStore) ExistsByUsername(ctx context.Context, role auth.Role, username string) (bool, error) {
	return s.exists(ctx, role, "username", username)
}

// ExistsByEmail reports whether the email exists in one partition.
func (s *UserStore) ExistsByEmail(ctx context.Context, role auth.Role, email string) (bool, error) {
	return s.exists(ctx, role, "email", email)
}

// UsernameTaken reports whether the username exists in any partition.
func (s *UserStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	for _, role := range []auth.Role{auth.RoleStudent, auth.RoleInstructor, auth.RoleAdmin} {
		taken, err := s.exists(ctx, role, "username", username)
		if err != nil {
			return false, err
		}
		if taken {
			return true, nil
		}
	}
	return false, nil
}

// EmailTaken reports whether the email exists in any partition.
func (s *UserStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	for _, role := range []auth.Role{auth.RoleStudent, auth.RoleInstructor, auth.RoleAdmin} {
		taken, err := s.exists(ctx, role, "email", email)
		if err != nil {
			return false, err
		}
		if taken {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts a new record into the partition named by u.Role. The
// partition's unique indexes are the final race backstop; their rejection
// surfaces as auth.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *auth.User) (*auth.User, error) {
	table, err := tableFor(u.Role)
	if err != nil {
		return nil, err
	}

	var query string
	var args []interface{}
	if u.Role == auth.RoleInstructor {
		query = fmt.Sprintf(`INSERT INTO %s
			(username, email, password_hash, first_name, last_name, department, bio, specialization)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table)
		args = []interface{}{u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.Department, u.Bio, u.Specialization}
	} else {
		query = fmt.Sprintf(`INSERT INTO %s
			(username, email, password_hash, first_name, last_name)
			VALUES (?, ?, ?, ?, ?)`, table)
		args = []interface{}{u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName}
	}

	var id int64
	if s.db.driver == DriverPostgres {
		err = s.db.QueryRowContext(ctx, s.db.rebind(query+" RETURNING id"), args...).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, query, args...)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %s %q", auth.ErrConflict, table, u.Username)
		}
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}

	return s.FindByID(ctx, u.Role, int(id))
}

// Update rewrites the mutable fields of a record. Email collisions within
// the partition surface as auth.ErrConflict.
func (s *UserStore) Update(ctx context.Context, u *auth.User) (*auth.User, error) {
	table, err := tableFor(u.Role)
	if err != nil {
		return nil, err
	}

	var query string
	var args []interface{}
	if u.Role == auth.RoleInstructor {
		query = fmt.Sprintf(`UPDATE %s SET
			email = ?, password_hash = ?, first_name = ?, last_name = ?,
			department = ?, bio = ?, specialization = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, table)
		args = []interface{}{u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.Department, u.Bio, u.Specialization, u.ID}
	} else {
		query = fmt.Sprintf(`UPDATE %s SET
			email = ?, password_hash = ?, first_name = ?, last_name = ?,
			updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, table)
		args = []interface{}{u.Email, u.PasswordHash, u.FirstName, u.LastName, u.ID}
	}

	res, err := s.db.ExecContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %s email %q", auth.ErrConflict, table, u.Email)
		}
		return nil, fmt.Errorf("updating %s %d: %w", table, u.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, auth.ErrNotFound
	}

	return s.FindByID(ctx, u.Role, u.ID)
}

// Delete removes a record from its partition.
func (s *UserStore) Delete(ctx context.Context, role auth.Role, id int) error {
	table, err := tableFor(role)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
