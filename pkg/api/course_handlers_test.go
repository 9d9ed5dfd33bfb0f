package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/store"
)

func seedCourse(t *testing.T, f *fixture, instructorID, maxStudents int, title string) *store.Course {
	t.Helper()
	c, err := f.courses.Create(context.Background(), &store.Course{
		Title: title, Description: "desc", DurationWeeks: 8,
		MaxStudents: maxStudents, InstructorID: instructorID,
	})
	require.NoError(t, err)
	return c
}

func TestListCoursesPublic(t *testing.T) {
	f := newFixture(t)
	seedCourse(t, f, 1, 50, "Intro to Go")
	seedCourse(t, f, 1, 50, "Databases")

	rec := f.do(t, http.MethodGet, "/api/courses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var courses []*store.Course
	decode(t, rec, &courses)
	assert.Len(t, courses, 2)
}

func TestGetCoursePublic(t *testing.T) {
	f := newFixture(t)
	c := seedCourse(t, f, 1, 50, "Intro to Go")

	rec := f.do(t, http.MethodGet, "/api/courses/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.Course
	decode(t, rec, &got)
	assert.Equal(t, c.Title, got.Title)

	rec = f.do(t, http.MethodGet, "/api/courses/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCourse(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, auth.RoleStudent, "alice")
	ira := f.addUser(t, auth.RoleInstructor, "ira")

	body := map[string]interface{}{
		"title": "Intro to Go", "description": "d", "durationWeeks": 8,
	}

	t.Run("student rejected at gate", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/courses", f.token(t, alice), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("instructor owns the new course", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/courses", f.token(t, ira), body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var c store.Course
		decode(t, rec, &c)
		assert.Equal(t, ira.ID, c.InstructorID)
		assert.Equal(t, store.DefaultMaxStudents, c.MaxStudents)
	})

	t.Run("cannot create for another instructor", func(t *testing.T) {
		other := map[string]interface{}{
			"title": "X", "durationWeeks": 4, "instructorId": 999,
		}
		rec := f.do(t, http.MethodPost, "/api/courses", f.token(t, ira), other)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("zero duration rejected", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/courses", f.token(t, ira), map[string]interface{}{
			"title": "X",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateCourse(t *testing.T) {
	f := newFixture(t)
	ira := f.addUser(t, auth.RoleInstructor, "ira")
	noam := f.addUser(t, auth.RoleInstructor, "noam")
	root := f.addUser(t, auth.RoleAdmin, "root")
	seedCourse(t, f, ira.ID, 10, "Intro to Go")

	t.Run("owner updates", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/courses/1", f.token(t, ira), map[string]interface{}{
			"title": "Advanced Go",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var c store.Course
		decode(t, rec, &c)
		assert.Equal(t, "Advanced Go", c.Title)
	})

	t.Run("other instructor forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/courses/1", f.token(t, noam), map[string]interface{}{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin updates any course", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/courses/1", f.token(t, root), map[string]interface{}{
			"description": "curated",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("capacity cannot drop below enrollment", func(t *testing.T) {
		for studentID := 100; studentID < 103; studentID++ {
			_, err := f.enrollments.Create(context.Background(), studentID, 1)
			require.NoError(t, err)
		}

		rec := f.do(t, http.MethodPut, "/api/courses/1", f.token(t, ira), map[string]interface{}{
			"maxStudents": 2,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, http.MethodPut, "/api/courses/1", f.token(t, ira), map[string]interface{}{
			"maxStudents": 3,
		})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestDeleteCourse(t *testing.T) {
	f := newFixture(t)
	ira := f.addUser(t, auth.RoleInstructor, "ira")
	root := f.addUser(t, auth.RoleAdmin, "root")
	seedCourse(t, f, ira.ID, 10, "Intro to Go")

	t.Run("owning instructor still forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, "/api/courses/1", f.token(t, ira), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, "/api/courses/1", f.token(t, root), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestSearchCourses(t *testing.T) {
	f := newFixture(t)
	seedCourse(t, f, 1, 50, "Intro to Go")
	seedCourse(t, f, 2, 50, "Go Concurrency")
	seedCourse(t, f, 2, 50, "Databases")

	t.Run("by title", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/courses/search?title=go", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []*store.Course
		decode(t, rec, &courses)
		assert.Len(t, courses, 2)
	})

	t.Run("by instructor", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/courses/search?instructorId=2", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []*store.Course
		decode(t, rec, &courses)
		assert.Len(t, courses, 2)
	})

	t.Run("no filters lists all", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/courses/search", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []*store.Course
		decode(t, rec, &courses)
		assert.Len(t, courses, 3)
	})
}

func TestListCoursesByStudent(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, auth.RoleStudent, "alice")
	bob := f.addUser(t, auth.RoleStudent, "bob")
	root := f.addUser(t, auth.RoleAdmin, "root")
	seedCourse(t, f, 10, 50, "Intro to Go")
	_, err := f.enrollments.Create(context.Background(), alice.ID, 1)
	require.NoError(t, err)

	t.Run("self", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/courses/student/1", f.token(t, alice), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []*store.Course
		decode(t, rec, &courses)
		assert.Len(t, courses, 1)
	})

	t.Run("other student forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/courses/student/1", f.token(t, bob), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/courses/student/1", f.token(t, root), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
