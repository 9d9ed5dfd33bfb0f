package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/observability"
	"github.com/eduelevate/lms/pkg/store"
)

// memUsers is an in-memory account store satisfying both auth.CredentialStore
// and UserDirectory.
type memUsers struct {
	seq   int
	users map[auth.Role]map[int]*auth.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[auth.Role]map[int]*auth.User{
		auth.RoleStudent:    {},
		auth.RoleInstructor: {},
		auth.RoleAdmin:      {},
	}}
}

func (m *memUsers) FindByUsername(_ context.Context, role auth.Role, username string) (*auth.User, error) {
	for _, u := range m.users[role] {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, role auth.Role, id int) (*auth.User, error) {
	if u, ok := m.users[role][id]; ok {
		return u, nil
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) FindAll(_ context.Context, role auth.Role) ([]*auth.User, error) {
	all := []*auth.User{}
	for _, u := range m.users[role] {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *memUsers) Create(_ context.Context, u *auth.User) (*auth.User, error) {
	for _, partition := range m.users {
		for _, existing := range partition {
			if existing.Username == u.Username || existing.Email == u.Email {
				return nil, auth.ErrConflict
			}
		}
	}
	m.seq++
	stored := *u
	stored.ID = m.seq
	m.users[u.Role][stored.ID] = &stored
	return &stored, nil
}

func (m *memUsers) Update(_ context.Context, u *auth.User) (*auth.User, error) {
	if _, ok := m.users[u.Role][u.ID]; !ok {
		return nil, auth.ErrNotFound
	}
	stored := *u
	m.users[u.Role][u.ID] = &stored
	return &stored, nil
}

func (m *memUsers) Delete(_ context.Context, role auth.Role, id int) error {
	if _, ok := m.users[role][id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.users[role], id)
	return nil
}

func (m *memUsers) UsernameTaken(_ context.Context, username string) (bool, error) {
	for _, partition := range m.users {
		for _, u := range partition {
			if u.Username == username {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memUsers) EmailTaken(_ context.Context, email string) (bool, error) {
	for _, partition := range m.users {
		for _, u := range partition {
			if u.Email == email {
				return true, nil
			}
		}
	}
	return false, nil
}

// memEnrollments is an in-memory enrollment store.
type memEnrollments struct {
	seq     int
	records map[int]*store.Enrollment
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{records: map[int]*store.Enrollment{}}
}

func (m *memEnrollments) Create(_ context.Context, studentID, courseID int) (*store.Enrollment, error) {
	for _, e := range m.records {
		if e.StudentID == studentID && e.CourseID == courseID {
			return nil, store.ErrDuplicate
		}
	}
	m.seq++
	e := &store.Enrollment{
		ID: m.seq, StudentID: studentID, CourseID: courseID,
		Status: store.EnrollmentActive, EnrolledAt: time.Now(),
	}
	m.records[e.ID] = e
	return e, nil
}

func (m *memEnrollments) Find(_ context.Context, studentID, courseID int) (*store.Enrollment, error) {
	for _, e := range m.records {
		if e.StudentID == studentID && e.CourseID == courseID {
			return e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memEnrollments) Exists(ctx context.Context, studentID, courseID int) (bool, error) {
	_, err := m.Find(ctx, studentID, courseID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memEnrollments) IsActivelyEnrolled(ctx context.Context, studentID, courseID int) (bool, error) {
	e, err := m.Find(ctx, studentID, courseID)
	if err != nil {
		return false, nil
	}
	return e.Status == store.EnrollmentActive, nil
}

func (m *memEnrollments) CountActive(_ context.Context, courseID int) (int, error) {
	n := 0
	for _, e := range m.records {
		if e.CourseID == courseID && e.Status == store.EnrollmentActive {
			n++
		}
	}
	return n, nil
}

func (m *memEnrollments) ListActiveByCourse(_ context.Context, courseID int) ([]*store.Enrollment, error) {
	out := []*store.Enrollment{}
	for _, e := range m.records {
		if e.CourseID == courseID && e.Status == store.EnrollmentActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memEnrollments) SetStatus(ctx context.Context, studentID, courseID int, status store.EnrollmentStatus) error {
	e, err := m.Find(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	e.Status = status
	return nil
}

// memCourses is an in-memory course store. It reads the enrollment fake to
// populate CurrentEnrollments the way the SQL subquery does.
type memCourses struct {
	seq         int
	courses     map[int]*store.Course
	enrollments *memEnrollments
}

func newMemCourses(enrollments *memEnrollments) *memCourses {
	return &memCourses{courses: map[int]*store.Course{}, enrollments: enrollments}
}

func (m *memCourses) fill(c *store.Course) *store.Course {
	out := *c
	out.CurrentEnrollments, _ = m.enrollments.CountActive(context.Background(), c.ID)
	return &out
}

func (m *memCourses) Create(_ context.Context, c *store.Course) (*store.Course, error) {
	if c.MaxStudents <= 0 {
		c.MaxStudents = store.DefaultMaxStudents
	}
	m.seq++
	stored := *c
	stored.ID = m.seq
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.courses[stored.ID] = &stored
	return m.fill(&stored), nil
}

func (m *memCourses) GetByID(_ context.Context, id int) (*store.Course, error) {
	if c, ok := m.courses[id]; ok {
		return m.fill(c), nil
	}
	return nil, store.ErrNotFound
}

func (m *memCourses) list(match func(*store.Course) bool) []*store.Course {
	out := []*store.Course{}
	for _, c := range m.courses {
		if match(c) {
			out = append(out, m.fill(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memCourses) List(_ context.Context) ([]*store.Course, error) {
	return m.list(func(*store.Course) bool { return true }), nil
}

func (m *memCourses) ListByInstructor(_ context.Context, instructorID int) ([]*store.Course, error) {
	return m.list(func(c *store.Course) bool { return c.InstructorID == instructorID }), nil
}

func (m *memCourses) SearchByTitle(_ context.Context, title string) ([]*store.Course, error) {
	return m.list(func(c *store.Course) bool {
		return containsFold(c.Title, title)
	}), nil
}

func (m *memCourses) ListByDuration(_ context.Context, minWeeks, maxWeeks int) ([]*store.Course, error) {
	return m.list(func(c *store.Course) bool {
		return c.DurationWeeks >= minWeeks && c.DurationWeeks <= maxWeeks
	}), nil
}

func (m *memCourses) ListAvailable(ctx context.Context) ([]*store.Course, error) {
	return m.list(func(c *store.Course) bool {
		n, _ := m.enrollments.CountActive(ctx, c.ID)
		return n < c.MaxStudents
	}), nil
}

func (m *memCourses) ListByStudent(ctx context.Context, studentID int) ([]*store.Course, error) {
	return m.list(func(c *store.Course) bool {
		active, _ := m.enrollments.IsActivelyEnrolled(ctx, studentID, c.ID)
		return active
	}), nil
}

func (m *memCourses) Update(_ context.Context, c *store.Course) (*store.Course, error) {
	if _, ok := m.courses[c.ID]; !ok {
		return nil, store.ErrNotFound
	}
	stored := *c
	m.courses[c.ID] = &stored
	return m.fill(&stored), nil
}

func (m *memCourses) Delete(_ context.Context, id int) error {
	if _, ok := m.courses[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

// memLessons is an in-memory lesson store.
type memLessons struct {
	seq     int
	lessons map[int]*store.Lesson
}

func newMemLessons() *memLessons {
	return &memLessons{lessons: map[int]*store.Lesson{}}
}

func (m *memLessons) Create(_ context.Context, l *store.Lesson) (*store.Lesson, error) {
	m.seq++
	stored := *l
	stored.ID = m.seq
	stored.CreatedAt = time.Now()
	m.lessons[stored.ID] = &stored
	return &stored, nil
}

func (m *memLessons) GetByID(_ context.Context, id int) (*store.Lesson, error) {
	if l, ok := m.lessons[id]; ok {
		return l, nil
	}
	return nil, store.ErrNotFound
}

func (m *memLessons) ListByCourse(_ context.Context, courseID int) ([]*store.Lesson, error) {
	out := []*store.Lesson{}
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonOrder < out[j].LessonOrder })
	return out, nil
}

func (m *memLessons) Update(_ context.Context, l *store.Lesson) (*store.Lesson, error) {
	if _, ok := m.lessons[l.ID]; !ok {
		return nil, store.ErrNotFound
	}
	stored := *l
	m.lessons[l.ID] = &stored
	return &stored, nil
}

func (m *memLessons) SetOTP(_ context.Context, id int, otp string, expiresAt time.Time) error {
	l, ok := m.lessons[id]
	if !ok {
		return store.ErrNotFound
	}
	l.OTP = otp
	l.OTPExpiresAt = &expiresAt
	return nil
}

func (m *memLessons) Delete(_ context.Context, id int) error {
	if _, ok := m.lessons[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.lessons, id)
	return nil
}

func containsFold(haystack, needle string) bool {
	h := bytes.ToLower([]byte(haystack))
	n := bytes.ToLower([]byte(needle))
	return bytes.Contains(h, n)
}

// fixture bundles a server with its fakes and token codec.
type fixture struct {
	server      *Server
	handler     http.Handler
	codec       *auth.TokenCodec
	users       *memUsers
	courses     *memCourses
	enrollments *memEnrollments
	lessons     *memLessons
}

type fixtureOption func(*Options)

func closedRegistration() fixtureOption {
	return func(o *Options) { o.OpenRegistration = false }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	users := newMemUsers()
	enrollments := newMemEnrollments()
	courses := newMemCourses(enrollments)
	lessons := newMemLessons()
	codec := auth.NewTokenCodec([]byte("test-secret"), time.Hour)

	options := Options{
		Authenticator:    auth.NewAuthenticator(users, codec),
		TokenCodec:       codec,
		Users:            users,
		Courses:          courses,
		Enrollments:      enrollments,
		Lessons:          lessons,
		Logger:           observability.NewLogger("error", "text", io.Discard),
		Metrics:          observability.NewMetrics(nil),
		OpenRegistration: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	server := NewServer(options)
	return &fixture{
		server:      server,
		handler:     server.Handler(),
		codec:       codec,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		lessons:     lessons,
	}
}

// addUser seeds an account directly and returns it. The password hash is a
// fixed bcrypt digest for "password123" so login tests do not re-hash.
func (f *fixture) addUser(t *testing.T, role auth.Role, username string) *auth.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &auth.User{
		Role:         role,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: testPasswordHash(t),
		FirstName:    "Test",
		LastName:     "User",
	})
	require.NoError(t, err)
	return u
}

var cachedHash string

func testPasswordHash(t *testing.T) string {
	t.Helper()
	if cachedHash == "" {
		h, err := auth.HashPassword("password123")
		require.NoError(t, err)
		cachedHash = h
	}
	return cachedHash
}

// token issues a bearer token for the given account.
func (f *fixture) token(t *testing.T, u *auth.User) string {
	t.Helper()
	token, err := f.codec.Issue(u.Username, u.Role, u.ID)
	require.NoError(t, err)
	return token
}

// do performs a request against the full middleware chain.
func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a JSON response body into dest.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest),
		fmt.Sprintf("body: %s", rec.Body.String()))
}
