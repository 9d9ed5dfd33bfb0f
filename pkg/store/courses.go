package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultMaxStudents is the course capacity applied when none is given.
const DefaultMaxStudents = 50

// Course is an instructor-owned course offering.
type Course struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	DurationWeeks int       `json:"duration_weeks"`
	MaxStudents   int       `json:"max_students"`
	InstructorID  int       `json:"instructor_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// CurrentEnrollments is the count of ACTIVE enrollments, populated on
	// reads.
	CurrentEnrollments int `json:"current_enrollments"`
}

// CourseStore persists courses.
type CourseStore struct {
	db *DB
}

// NewCourseStore creates a course store on the given connection.
func NewCourseStore(db *DB) *CourseStore {
	return &CourseStore{db: db}
}

const courseColumns = `c.id, c.title, c.description, c.duration_weeks, c.max_students,
	c.instructor_id, c.created_at, c.updated_at,
	(SELECT COUNT(1) FROM enrollments e WHERE e.course_id = c.id AND e.status = 'ACTIVE')`

func scanCourse(row rowScanner) (*Course, error) {
	c := &Course{}
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.DurationWeeks, &c.MaxStudents,
		&c.InstructorID, &c.CreatedAt, &c.UpdatedAt, &c.CurrentEnrollments)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CourseStore) queryCourses(ctx context.Context, where string, args ...interface{}) ([]*Course, error) {
	query := "SELECT " + courseColumns + " FROM courses c"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY c.id"

	rows, err := s.db.QueryContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	courses := []*Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Create inserts a course and returns the stored record.
func (s *CourseStore) Create(ctx context.Context, c *Course) (*Course, error) {
	if c.MaxStudents <= 0 {
		c.MaxStudents = DefaultMaxStudents
	}

	query := `INSERT INTO courses (title, description, duration_weeks, max_students, instructor_id)
		VALUES (?, ?, ?, ?, ?)`
	args := []interface{}{c.Title, c.Description, c.DurationWeeks, c.MaxStudents, c.InstructorID}

	var id int64
	var err error
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
		return nil, fmt.Errorf("inserting course: %w", err)
	}
	return s.GetByID(ctx, int(id))
}

// GetByID fetches one course with its active enrollment count.
func (s *CourseStore) GetByID(ctx context.Context, id int) (*Course, error) {
	query := s.db.rebind("SELECT " + courseColumns + " FROM courses c WHERE c.id = ?")
	c, err := scanCourse(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying course %d: %w", id, err)
	}
	return c, nil
}

// List returns all courses.
func (s *CourseStore) List(ctx context.Context) ([]*Course, error) {
	return s.queryCourses(ctx, "")
}

// ListByInstructor returns the courses owned by one instructor.
func (s *CourseStore) ListByInstructor(ctx context.Context, instructorID int) ([]*Course, error) {
	return s.queryCourses(ctx, "c.instructor_id = ?", instructorID)
}

// SearchByTitle returns courses whose title contains the fragment,
// case-insensitive.
func (s *CourseStore) SearchByTitle(ctx context.Context, title string) ([]*Course, error) {
	return s.queryCourses(ctx, "LOWER(c.title) LIKE LOWER(?)", "%"+title+"%")
}

// ListByDuration returns courses within the given duration range in weeks.
func (s *CourseStore) ListByDuration(ctx context.Context, minWeeks, maxWeeks int) ([]*Course, error) {
	return s.queryCourses(ctx, "c.duration_weeks BETWEEN ? AND ?", minWeeks, maxWeeks)
}

// ListAvailable returns courses with at least one open spot.
func (s *CourseStore) ListAvailable(ctx context.Context) ([]*Course, error) {
	return s.queryCourses(ctx,
		"(SELECT COUNT(1) FROM enrollments e WHERE e.course_id = c.id AND e.status = 'ACTIVE') < c.max_students")
}

// ListByStudent returns the courses a student is actively enrolled in.
func (s *CourseStore) ListByStudent(ctx context.Context, studentID int) ([]*Course, error) {
	return s.queryCourses(ctx,
		"c.id IN (SELECT e.course_id FROM enrollments e WHERE e.student_id = ? AND e.status = 'ACTIVE')",
		studentID)
}

// Update rewrites the mutable course fields.
func (s *CourseStore) Update(ctx context.Context, c *Course) (*Course, error) {
	res, err := s.db.ExecContext(ctx, s.db.rebind(`UPDATE courses SET
		title = ?, description = ?, duration_weeks = ?, max_students = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		c.Title, c.Description, c.DurationWeeks, c.MaxStudents, c.ID)
	if err != nil {
		return nil, fmt.Errorf("updating course %d: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, c.ID)
}

// Delete removes a course and its enrollments and lessons.
func (s *CourseStore) Delete(ctx context.Context, id int) error {
	if _, err := s.db.ExecContext(ctx, s.db.rebind(
		"DELETE FROM enrollments WHERE course_id = ?"), id); err != nil {
		return fmt.Errorf("deleting enrollments for course %d: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.rebind(
		"DELETE FROM lessons WHERE course_id = ?"), id); err != nil {
		return fmt.Errorf("deleting lessons for course %d: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		"DELETE FROM courses WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting course %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
