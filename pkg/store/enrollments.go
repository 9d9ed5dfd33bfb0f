package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
)

// Enrollment links a student to a course. The (student, course) pair is
// unique regardless of status; unenrolling marks the record DROPPED rather
// than deleting it.
type Enrollment struct {
	ID         int              `json:"id"`
	StudentID  int              `json:"student_id"`
	CourseID   int              `json:"course_id"`
	Status     EnrollmentStatus `json:"status"`
	EnrolledAt time.Time        `json:"enrolled_at"`
}

// EnrollmentStore persists enrollments.
type EnrollmentStore struct {
	db *DB
}

// NewEnrollmentStore creates an enrollment store on the given connection.
func NewEnrollmentStore(db *DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

const enrollmentColumns = "id, student_id, course_id, status, enrolled_at"

func scanEnrollment(row rowScanner) (*Enrollment, error) {
	e := &Enrollment{}
	if err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.EnrolledAt); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts an ACTIVE enrollment. The unique (student, course) index
// rejects duplicates as ErrDuplicate.
func (s *EnrollmentStore) Create(ctx context.Context, studentID, courseID int) (*Enrollment, error) {
	query := "INSERT INTO enrollments (student_id, course_id, status) VALUES (?, ?, 'ACTIVE')"

	var id int64
	var err error
	if s.db.driver == DriverPostgres {
		err = s.db.QueryRowContext(ctx, s.db.rebind(query+" RETURNING id"), studentID, courseID).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, query, studentID, courseID)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: student %d in course %d", ErrDuplicate, studentID, courseID)
		}
		return nil, fmt.Errorf("inserting enrollment: %w", err)
	}

	e, err := scanEnrollment(s.db.QueryRowContext(ctx, s.db.rebind(
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE id = ?"), id))
	if err != nil {
		return nil, fmt.Errorf("reading back enrollment %d: %w", id, err)
	}
	return e, nil
}

// Find returns the enrollment for a (student, course) pair in any status.
func (s *EnrollmentStore) Find(ctx context.Context, studentID, courseID int) (*Enrollment, error) {
	e, err := scanEnrollment(s.db.QueryRowContext(ctx, s.db.rebind(
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE student_id = ? AND course_id = ?"),
		studentID, courseID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying enrollment: %w", err)
	}
	return e, nil
}

// Exists reports whether any enrollment record links the pair, regardless of
// status.
func (s *EnrollmentStore) Exists(ctx context.Context, studentID, courseID int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.db.rebind(
		"SELECT COUNT(1) FROM enrollments WHERE student_id = ? AND course_id = ?"),
		studentID, courseID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking enrollment: %w", err)
	}
	return n > 0, nil
}

// IsActivelyEnrolled reports whether the student has an ACTIVE enrollment in
// the course.
func (s *EnrollmentStore) IsActivelyEnrolled(ctx context.Context, studentID, courseID int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.db.rebind(
		"SELECT COUNT(1) FROM enrollments WHERE student_id = ? AND course_id = ? AND status = 'ACTIVE'"),
		studentID, courseID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking active enrollment: %w", err)
	}
	return n > 0, nil
}

// CountActive returns the number of ACTIVE enrollments in a course.
func (s *EnrollmentStore) CountActive(ctx context.Context, courseID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.db.rebind(
		"SELECT COUNT(1) FROM enrollments WHERE course_id = ? AND status = 'ACTIVE'"),
		courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting enrollments for course %d: %w", courseID, err)
	}
	return n, nil
}

// ListActiveByCourse returns the ACTIVE enrollments of a course.
func (s *EnrollmentStore) ListActiveByCourse(ctx context.Context, courseID int) ([]*Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE course_id = ? AND status = 'ACTIVE' ORDER BY id"),
		courseID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments for course %d: %w", courseID, err)
	}
	defer rows.Close()

	enrollments := []*Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// SetStatus transitions the enrollment for a (student, course) pair.
func (s *EnrollmentStore) SetStatus(ctx context.Context, studentID, courseID int, status EnrollmentStatus) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		"UPDATE enrollments SET status = ? WHERE student_id = ? AND course_id = ?"),
		string(status), studentID, courseID)
	if err != nil {
		return fmt.Errorf("updating enrollment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
