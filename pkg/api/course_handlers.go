package api

import (
	"net/http"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/httputil"
	"github.com/eduelevate/lms/pkg/middleware"
	"github.com/eduelevate/lms/pkg/store"
)

// listCourses returns the full course catalog. Public.
func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.courses.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, courses)
}

// getCourse returns one course with its active enrollment count. Public.
func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	course, err := s.courses.GetByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, course)
}

// searchCourses filters the catalog by title fragment, instructor, duration
// range, or availability. Filters are mutually exclusive; the first one
// present wins, matching the order below.
func (s *Server) searchCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if title := httputil.ParseQueryString(r, "title", ""); title != "" {
		courses, err := s.courses.SearchByTitle(ctx, title)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, courses)
		return
	}

	if instructorID, err := httputil.ParseQueryInt(r, "instructorId", 0); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	} else if instructorID > 0 {
		courses, err := s.courses.ListByInstructor(ctx, instructorID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, courses)
		return
	}

	minWeeks, err := httputil.ParseQueryInt(r, "minWeeks", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	maxWeeks, err := httputil.ParseQueryInt(r, "maxWeeks", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if minWeeks > 0 || maxWeeks > 0 {
		if maxWeeks == 0 {
			maxWeeks = int(^uint(0) >> 1)
		}
		courses, err := s.courses.ListByDuration(ctx, minWeeks, maxWeeks)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, courses)
		return
	}

	availableOnly, err := httputil.ParseQueryBool(r, "availableOnly", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if availableOnly {
		courses, err := s.courses.ListAvailable(ctx)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, courses)
		return
	}

	courses, err := s.courses.List(ctx)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, courses)
}

// listCoursesByInstructor returns an instructor's courses. Public.
func (s *Server) listCoursesByInstructor(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := httputil.ParsePathIntOrError(w, r, "instructorId")
	if !ok {
		return
	}
	courses, err := s.courses.ListByInstructor(r.Context(), instructorID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, courses)
}

// listCoursesByStudent returns the courses a student is actively enrolled in.
// Admins see anyone; students see only themselves.
func (s *Server) listCoursesByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := httputil.ParsePathIntOrError(w, r, "studentId")
	if !ok {
		return
	}

	p := middleware.Principal(r)
	if !auth.CanAccess(p, studentID, auth.ResourceStudent) {
		s.denyAccess(w, auth.ResourceStudent)
		return
	}

	courses, err := s.courses.ListByStudent(r.Context(), studentID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, courses)
}

// createCourse creates a course owned by the calling instructor. Instructors
// cannot create courses on behalf of someone else.
func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}
	if req.DurationWeeks <= 0 {
		httputil.WriteBadRequest(w, "durationWeeks must be positive")
		return
	}

	p := middleware.Principal(r)
	if req.InstructorID != 0 && req.InstructorID != p.UserID {
		s.denyAccess(w, auth.ResourceCourse)
		return
	}

	course, err := s.courses.Create(r.Context(), &store.Course{
		Title:         req.Title,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		MaxStudents:   req.MaxStudents,
		InstructorID:  p.UserID,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteCreated(w, course)
}

// updateCourse rewrites a course. Admins may update any course; an instructor
// only their own. Capacity can never drop below the current active enrollment
// count.
func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}

	course, err := s.courses.GetByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	p := middleware.Principal(r)
	if p.Role != auth.RoleAdmin && course.InstructorID != p.UserID {
		s.denyAccess(w, auth.ResourceCourse)
		return
	}

	var req courseRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.DurationWeeks > 0 {
		course.DurationWeeks = req.DurationWeeks
	}
	if req.MaxStudents > 0 {
		active, err := s.enrollments.CountActive(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if req.MaxStudents < active {
			httputil.WriteBadRequest(w, "maxStudents cannot be below current enrollment count")
			return
		}
		course.MaxStudents = req.MaxStudents
	}

	updated, err := s.courses.Update(r.Context(), course)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

// deleteCourse removes a course with its enrollments and lessons.
func (s *Server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIntOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.courses.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
