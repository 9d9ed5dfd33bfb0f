package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Lesson is one ordered unit of a course. The OTP fields support attendance:
// an instructor generates a short-lived code that enrolled students present.
type Lesson struct {
	ID           int        `json:"id"`
	CourseID     int        `json:"course_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	LessonOrder  int        `json:"lesson_order"`
	OTP          string     `json:"-"`
	OTPExpiresAt *time.Time `json:"otp_expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// OTPValid reports whether the provided code matches an unexpired OTP.
func (l *Lesson) OTPValid(code string, now time.Time) bool {
	return l.OTP != "" && l.OTP == code &&
		l.OTPExpiresAt != nil && l.OTPExpiresAt.After(now)
}

// LessonStore persists lessons.
type LessonStore struct {
	db *DB
}

// NewLessonStore creates a lesson store on the given connection.
func NewLessonStore(db *DB) *LessonStore {
	return &LessonStore{db: db}
}

const lessonColumns = "id, course_id, title, description, lesson_order, otp, otp_expires_at, created_at"

func scanLesson(row rowScanner) (*Lesson, error) {
	l := &Lesson{}
	var otp sql.NullString
	var expires sql.NullTime
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.LessonOrder,
		&otp, &expires, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.OTP = otp.String
	if expires.Valid {
		t := expires.Time
		l.OTPExpiresAt = &t
	}
	return l, nil
}

// Create inserts a lesson and returns the stored record.
func (s *LessonStore) Create(ctx context.Context, l *Lesson) (*Lesson, error) {
	query := "INSERT INTO lessons (course_id, title, description, lesson_order) VALUES (?, ?, ?, ?)"
	args := []interface{}{l.CourseID, l.Title, l.Description, l.LessonOrder}

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
		return nil, fmt.Errorf("inserting lesson: %w", err)
	}
	return s.GetByID(ctx, int(id))
}

// GetByID fetches one lesson.
func (s *LessonStore) GetByID(ctx context.Context, id int) (*Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx, s.db.rebind(
		"SELECT "+lessonColumns+" FROM lessons WHERE id = ?"), id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying lesson %d: %w", id, err)
	}
	return l, nil
}

// ListByCourse returns the lessons of a course in lesson order.
func (s *LessonStore) ListByCourse(ctx context.Context, courseID int) ([]*Lesson, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(
		"SELECT "+lessonColumns+" FROM lessons WHERE course_id = ? ORDER BY lesson_order, id"),
		courseID)
	if err != nil {
		return nil, fmt.Errorf("listing lessons for course %d: %w", courseID, err)
	}
	defer rows.Close()

	lessons := []*Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// Update rewrites the mutable lesson fields.
func (s *LessonStore) Update(ctx context.Context, l *Lesson) (*Lesson, error) {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		"UPDATE lessons SET title = ?, description = ?, lesson_order = ? WHERE id = ?"),
		l.Title, l.Description, l.LessonOrder, l.ID)
	if err != nil {
		return nil, fmt.Errorf("updating lesson %d: %w", l.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, l.ID)
}

// SetOTP stores a fresh attendance code and its expiry on the lesson.
func (s *LessonStore) SetOTP(ctx context.Context, id int, otp string, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		"UPDATE lessons SET otp = ?, otp_expires_at = ? WHERE id = ?"),
		otp, expiresAt, id)
	if err != nil {
		return fmt.Errorf("setting OTP on lesson %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a lesson.
func (s *LessonStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind(
		"DELETE FROM lessons WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting lesson %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
