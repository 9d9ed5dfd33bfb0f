package api

import (
	"context"
	"time"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/store"
)

// UserDirectory is the account persistence the handlers depend on. The
// concrete implementation is store.UserStore; tests substitute an in-memory
// fake.
type UserDirectory interface {
	FindByID(ctx context.Context, role auth.Role, id int) (*auth.User, error)
	FindAll(ctx context.Context, role auth.Role) ([]*auth.User, error)
	Create(ctx context.Context, u *auth.User) (*auth.User, error)
	Update(ctx context.Context, u *auth.User) (*auth.User, error)
	Delete(ctx context.Context, role auth.Role, id int) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// CourseRepository is the course persistence contract.
type CourseRepository interface {
	Create(ctx context.Context, c *store.Course) (*store.Course, error)
	GetByID(ctx context.Context, id int) (*store.Course, error)
	List(ctx context.Context) ([]*store.Course, error)
	ListByInstructor(ctx context.Context, instructorID int) ([]*store.Course, error)
	SearchByTitle(ctx context.Context, title string) ([]*store.Course, error)
	ListByDuration(ctx context.Context, minWeeks, maxWeeks int) ([]*store.Course, error)
	ListAvailable(ctx context.Context) ([]*store.Course, error)
	ListByStudent(ctx context.Context, studentID int) ([]*store.Course, error)
	Update(ctx context.Context, c *store.Course) (*store.Course, error)
	Delete(ctx context.Context, id int) error
}

// EnrollmentRepository is the enrollment persistence contract.
type EnrollmentRepository interface {
	Create(ctx context.Context, studentID, courseID int) (*store.Enrollment, error)
	Find(ctx context.Context, studentID, courseID int) (*store.Enrollment, error)
	Exists(ctx context.Context, studentID, courseID int) (bool, error)
	IsActivelyEnrolled(ctx context.Context, studentID, courseID int) (bool, error)
	CountActive(ctx context.Context, courseID int) (int, error)
	ListActiveByCourse(ctx context.Context, courseID int) ([]*store.Enrollment, error)
	SetStatus(ctx context.Context, studentID, courseID int, status store.EnrollmentStatus) error
}

// LessonRepository is the lesson persistence contract.
type LessonRepository interface {
	Create(ctx context.Context, l *store.Lesson) (*store.Lesson, error)
	GetByID(ctx context.Context, id int) (*store.Lesson, error)
	ListByCourse(ctx context.Context, courseID int) ([]*store.Lesson, error)
	Update(ctx context.Context, l *store.Lesson) (*store.Lesson, error)
	SetOTP(ctx context.Context, id int, otp string, expiresAt time.Time) error
	Delete(ctx context.Context, id int) error
}

// createUserRequest is the admin-facing account creation payload. The
// department, bio, and specialization fields only apply to instructors.
type createUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Department     string `json:"department"`
	Bio            string `json:"bio"`
	Specialization string `json:"specialization"`
}

// updateUserRequest carries the mutable account fields. A nil field is left
// unchanged; a non-empty password is re-hashed.
type updateUserRequest struct {
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Department     *string `json:"department"`
	Bio            *string `json:"bio"`
	Specialization *string `json:"specialization"`
}

// courseRequest is the create/update payload for courses.
type courseRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	DurationWeeks int    `json:"durationWeeks"`
	MaxStudents   int    `json:"maxStudents"`
	InstructorID  int    `json:"instructorId"`
}

// lessonRequest is the create/update payload for lessons.
type lessonRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LessonOrder int    `json:"lessonOrder"`
}
