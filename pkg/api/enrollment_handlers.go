package api

import (
	"net/http"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/httputil"
	"github.com/eduelevate/lms/pkg/middleware"
	"github.com/eduelevate/lms/pkg/store"
)

// enrollRequest optionally names the student. Students enroll themselves and
// may omit it; admins must supply it.
type enrollRequest struct {
	StudentID int `json:"studentId"`
}

// resolveEnrollStudent works out which student an enrollment operation
// targets and whether the caller may act for them.
func (s *Server) resolveEnrollStudent(w http.ResponseWriter, r *http.Request) (int, bool) {
	p := middleware.Principal(r)

	var req enrollRequest
	if r.Body != nil && r.ContentLength > 0 {
		if !httputil.ParseJSONOrError(w, r, &req) {
			return 0, false
		}
	}

	switch p.Role {
	case auth.RoleStudent:
		if req.StudentID != 0 && req.StudentID != p.UserID {
			s.denyAccess(w, auth.ResourceStudent)
			return 0, false
		}
		return p.UserID, true
	case auth.RoleAdmin:
		if req.StudentID == 0 {
			httputil.WriteBadRequest(w, "studentId is required")
			return 0, false
		}
		return req.StudentID, true
	default:
		s.denyAccess(w, auth.ResourceCourse)
		return 0, false
	}
}

// enroll adds a student to a course. Rejected when the course is unknown
// (404), the student already holds an enrollment record in any status (409),
// or the course is full (400).
func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := s.resolveEnrollStudent(w, r)
	if !ok {
		return
	}

	course, err := s.courses.GetByID(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if _, err := s.users.FindByID(r.Context(), auth.RoleStudent, studentID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	exists, err := s.enrollments.Exists(r.Context(), studentID, courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if exists {
		s.metrics.EnrollmentsTotal.WithLabelValues("duplicate").Inc()
		httputil.WriteConflict(w, "student already enrolled in this course")
		return
	}

	active, err := s.enrollments.CountActive(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if active >= course.MaxStudents {
		s.metrics.EnrollmentsTotal.WithLabelValues("full").Inc()
		httputil.WriteBadRequest(w, "course is full")
		return
	}

	enrollment, err := s.enrollments.Create(r.Context(), studentID, courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.metrics.EnrollmentsTotal.WithLabelValues("success").Inc()
	httputil.WriteCreated(w, enrollment)
}

// unenroll marks the enrollment DROPPED. The record is kept, so re-enrolling
// the same pair later is rejected as a duplicate.
func (s *Server) unenroll(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := s.resolveEnrollStudent(w, r)
	if !ok {
		return
	}

	if err := s.enrollments.SetStatus(r.Context(), studentID, courseID, store.EnrollmentDropped); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.metrics.EnrollmentsTotal.WithLabelValues("dropped").Inc()
	httputil.WriteNoContent(w)
}

// listEnrollments returns a course's active enrollments. Admins see any
// course; an instructor only their own.
func (s *Server) listEnrollments(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	course, err := s.courses.GetByID(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	p := middleware.Principal(r)
	if p.Role != auth.RoleAdmin && course.InstructorID != p.UserID {
		s.denyAccess(w, auth.ResourceCourse)
		return
	}

	enrollments, err := s.enrollments.ListActiveByCourse(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, enrollments)
}

// courseStats reports capacity and fill for one course. Public.
func (s *Server) courseStats(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	course, err := s.courses.GetByID(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"courseId":           course.ID,
		"title":              course.Title,
		"maxStudents":        course.MaxStudents,
		"currentEnrollments": course.CurrentEnrollments,
		"availableSpots":     course.MaxStudents - course.CurrentEnrollments,
	})
}

// isEnrolled reports whether a student is actively enrolled in a course.
// Admins and instructors may ask about anyone; a student only about
// themselves.
func (s *Server) isEnrolled(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := httputil.ParsePathIntOrError(w, r, "studentId")
	if !ok {
		return
	}

	p := middleware.Principal(r)
	if !auth.CanAccess(p, studentID, auth.ResourceStudent) {
		s.denyAccess(w, auth.ResourceStudent)
		return
	}

	enrolled, err := s.enrollments.IsActivelyEnrolled(r.Context(), studentID, courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]bool{"enrolled": enrolled})
}
