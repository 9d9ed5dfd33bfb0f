package api

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/httputil"
	"github.com/eduelevate/lms/pkg/middleware"
	"github.com/eduelevate/lms/pkg/store"
)

// otpTTL is how long a generated attendance code stays valid.
const otpTTL = 24 * time.Hour

// courseLesson loads a lesson and verifies it belongs to the course in the
// path, so a lesson cannot be reached through another course's URL.
func (s *Server) courseLesson(w http.ResponseWriter, r *http.Request) (*store.Lesson, bool) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return nil, false
	}
	lessonID, ok := httputil.ParsePathIntOrError(w, r, "lessonId")
	if !ok {
		return nil, false
	}

	lesson, err := s.lessons.GetByID(r.Context(), lessonID)
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	if lesson.CourseID != courseID {
		httputil.WriteNotFoundError(w, "not found")
		return nil, false
	}
	return lesson, true
}

// requireCourseOwner allows admins and the course's instructor through.
func (s *Server) requireCourseOwner(w http.ResponseWriter, r *http.Request, courseID int) bool {
	course, err := s.courses.GetByID(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return false
	}
	p := middleware.Principal(r)
	if p.Role != auth.RoleAdmin && course.InstructorID != p.UserID {
		s.denyAccess(w, auth.ResourceCourse)
		return false
	}
	return true
}

// listLessons returns a course's lessons in order. Public.
func (s *Server) listLessons(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	lessons, err := s.lessons.ListByCourse(r.Context(), courseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, lessons)
}

// createLesson adds a lesson to a course. Admin or owning instructor.
func (s *Server) createLesson(w http.ResponseWriter, r *http.Request) {
	courseID, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	if !s.requireCourseOwner(w, r, courseID) {
		return
	}

	var req lessonRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	lesson, err := s.lessons.Create(r.Context(), &store.Lesson{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		LessonOrder: req.LessonOrder,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteCreated(w, lesson)
}

// updateLesson rewrites a lesson's mutable fields. Admin or owning
// instructor.
func (s *Server) updateLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.courseLesson(w, r)
	if !ok {
		return
	}
	if !s.requireCourseOwner(w, r, lesson.CourseID) {
		return
	}

	var req lessonRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.Description != "" {
		lesson.Description = req.Description
	}
	if req.LessonOrder > 0 {
		lesson.LessonOrder = req.LessonOrder
	}

	updated, err := s.lessons.Update(r.Context(), lesson)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

// deleteLesson removes a lesson. Admin or owning instructor.
func (s *Server) deleteLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.courseLesson(w, r)
	if !ok {
		return
	}
	if !s.requireCourseOwner(w, r, lesson.CourseID) {
		return
	}
	if err := s.lessons.Delete(r.Context(), lesson.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// generateLessonOTP mints a fresh 6-digit attendance code for the lesson,
// replacing any previous one. Admin or owning instructor.
func (s *Server) generateLessonOTP(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.courseLesson(w, r)
	if !ok {
		return
	}
	if !s.requireCourseOwner(w, r, lesson.CourseID) {
		return
	}

	otp, err := generateOTP()
	if err != nil {
		s.logger.WithError(err).Error("generating OTP")
		httputil.WriteInternalError(w, errors.New("internal error"))
		return
	}
	expiresAt := s.now().Add(otpTTL)

	if err := s.lessons.SetOTP(r.Context(), lesson.ID, otp, expiresAt); err != nil {
		s.writeStoreError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"otp":       otp,
		"expiresAt": expiresAt,
	})
}

type attendRequest struct {
	OTP string `json:"otp"`
}

// attendLesson records attendance: the calling student must be actively
// enrolled in the course and present the lesson's current unexpired code.
func (s *Server) attendLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.courseLesson(w, r)
	if !ok {
		return
	}

	p := middleware.Principal(r)
	if p.Role != auth.RoleStudent {
		s.denyAccess(w, auth.ResourceCourse)
		return
	}

	var req attendRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.OTP, "otp") {
		return
	}

	enrolled, err := s.enrollments.IsActivelyEnrolled(r.Context(), p.UserID, lesson.CourseID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !enrolled {
		s.denyAccess(w, auth.ResourceCourse)
		return
	}

	if !lesson.OTPValid(req.OTP, s.now()) {
		httputil.WriteBadRequest(w, "invalid or expired code")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"attended": true,
		"lessonId": lesson.ID,
	})
}

// generateOTP returns a uniformly random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
