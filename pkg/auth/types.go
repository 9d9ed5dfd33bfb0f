package auth

import (
	"context"
	"strings"
	"time"
)

// Role identifies which of the three user partitions an account belongs to.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// ParseRole maps the wire-level user type ("student", "admin", "instructor",
// case-insensitive) to a Role.
func ParseRole(userType string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(userType)) {
	case "student":
		return RoleStudent, nil
	case "instructor":
		return RoleInstructor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// ResourceType categorizes the target of an access check by its owning role,
// plus courses.
type ResourceType string

const (
	ResourceStudent    ResourceType = "STUDENT"
	ResourceInstructor ResourceType = "INSTRUCTOR"
	ResourceAdmin      ResourceType = "ADMIN"
	ResourceCourse     ResourceType = "COURSE"
)

// Principal is the authenticated identity resolved for one request. It is
// constructed once by the identity middleware and never mutated afterward.
type Principal struct {
	Username string `json:"username"`
	UserID   int    `json:"userId"`
	Role     Role   `json:"role"`
}

// User is the unified credential record. A single tagged-variant type with a
// role discriminant replaces three parallel entity types; the instructor
// profile fields are simply empty for the other roles. Uniqueness of username
// and email is enforced per partition by the store, with a cross-partition
// check applied at registration time.
type User struct {
	ID           int       `json:"id"`
	Role         Role      `json:"role"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`

	// Instructor profile fields.
	Department     string `json:"department,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Specialization string `json:"specialization,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialStore is the persistence contract the authenticator depends on.
// Lookups that find no matching record return an error satisfying
// errors.Is(err, ErrNotFound). Create returns an error satisfying
// errors.Is(err, ErrConflict) when a uniqueness constraint rejects the
// insert; the constraint is the race-safety backstop behind the
// UsernameTaken/EmailTaken pre-checks.
type CredentialStore interface {
	// FindByUsername looks a user up within a single role partition.
	FindByUsername(ctx context.Context, role Role, username string) (*User, error)

	// Create inserts a new record into the partition named by u.Role and
	// returns the stored record with its assigned id.
	Create(ctx context.Context, u *User) (*User, error)

	// UsernameTaken reports whether the username exists in any of the three
	// partitions.
	UsernameTaken(ctx context.Context, username string) (bool, error)

	// EmailTaken reports whether the email exists in any of the three
	// partitions.
	EmailTaken(ctx context.Context, email string) (bool, error)
}
