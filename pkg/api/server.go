package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/httputil"
	"github.com/eduelevate/lms/pkg/middleware"
	"github.com/eduelevate/lms/pkg/observability"
	"github.com/eduelevate/lms/pkg/store"
)

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	router  *mux.Router
	logger  *logrus.Logger
	metrics *observability.Metrics

	authn       *auth.Authenticator
	identity    *middleware.Identity
	users       UserDirectory
	courses     CourseRepository
	enrollments EnrollmentRepository
	lessons     LessonRepository

	health http.Handler

	openRegistration bool
	now              func() time.Time
}

// Options configures a Server. Authenticator, TokenCodec, and the four
// repositories are required; the rest default sensibly.
type Options struct {
	Authenticator *auth.Authenticator
	TokenCodec    *auth.TokenCodec

	Users       UserDirectory
	Courses     CourseRepository
	Enrollments EnrollmentRepository
	Lessons     LessonRepository

	Logger  *logrus.Logger
	Metrics *observability.Metrics
	Health  http.Handler

	// OpenRegistration exposes POST /api/auth/register and POST /api/admins
	// without authentication. Off restricts both to admins.
	OpenRegistration bool
}

// NewServer creates the API server and registers all routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger("info", "text", nil)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}

	s := &Server{
		router:           mux.NewRouter(),
		logger:           logger,
		metrics:          metrics,
		authn:            opts.Authenticator,
		identity:         middleware.NewIdentity(opts.TokenCodec),
		users:            opts.Users,
		courses:          opts.Courses,
		enrollments:      opts.Enrollments,
		lessons:          opts.Lessons,
		health:           opts.Health,
		openRegistration: opts.OpenRegistration,
		now:              time.Now,
	}
	s.setupRoutes()
	return s
}

// Handler returns the full middleware chain wrapped around the router.
// Identity runs before logging so request logs carry the resolved principal;
// metrics are attached inside the router where the route template is known.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = middleware.Logging(s.logger)(h)
	h = s.identity.Handler(h)
	h = middleware.RequestID(h)
	return h
}

// setupRoutes configures all the API routes.
func (s *Server) setupRoutes() {
	s.router.Use(mux.MiddlewareFunc(middleware.Metrics(s.metrics)))

	admin := middleware.RequireRole(auth.RoleAdmin)
	adminOrInstructor := middleware.RequireRole(auth.RoleAdmin, auth.RoleInstructor)
	instructor := middleware.RequireRole(auth.RoleInstructor)

	// Auth routes
	s.router.HandleFunc("/api/auth/login", s.login).Methods("POST")
	if s.openRegistration {
		s.router.HandleFunc("/api/auth/register", s.register).Methods("POST")
	} else {
		s.handle("/api/auth/register", admin, s.register).Methods("POST")
	}

	// Student account routes
	s.handle("/api/students", adminOrInstructor, s.listUsers(auth.RoleStudent)).Methods("GET")
	s.handle("/api/students", admin, s.createUser(auth.RoleStudent)).Methods("POST")
	s.handle("/api/students/{id}", authOnly, s.getUser(auth.RoleStudent)).Methods("GET")
	s.handle("/api/students/{id}", authOnly, s.updateUser(auth.RoleStudent)).Methods("PUT")
	s.handle("/api/students/{id}", authOnly, s.deleteUser(auth.RoleStudent)).Methods("DELETE")

	// Instructor account routes
	s.handle("/api/instructors", admin, s.listUsers(auth.RoleInstructor)).Methods("GET")
	s.handle("/api/instructors", admin, s.createUser(auth.RoleInstructor)).Methods("POST")
	s.handle("/api/instructors/{id}", authOnly, s.getUser(auth.RoleInstructor)).Methods("GET")
	s.handle("/api/instructors/{id}", authOnly, s.updateUser(auth.RoleInstructor)).Methods("PUT")
	s.handle("/api/instructors/{id}", authOnly, s.deleteUser(auth.RoleInstructor)).Methods("DELETE")

	// Admin account routes
	s.handle("/api/admins", admin, s.listUsers(auth.RoleAdmin)).Methods("GET")
	if s.openRegistration {
		s.router.HandleFunc("/api/admins", s.createUser(auth.RoleAdmin)).Methods("POST")
	} else {
		s.handle("/api/admins", admin, s.createUser(auth.RoleAdmin)).Methods("POST")
	}
	s.handle("/api/admins/students", admin, s.listUsers(auth.RoleStudent)).Methods("GET")
	s.handle("/api/admins/instructors", admin, s.listUsers(auth.RoleInstructor)).Methods("GET")
	s.handle("/api/admins/{id}", authOnly, s.getUser(auth.RoleAdmin)).Methods("GET")
	s.handle("/api/admins/{id}", authOnly, s.updateUser(auth.RoleAdmin)).Methods("PUT")
	s.handle("/api/admins/{id}", authOnly, s.deleteUser(auth.RoleAdmin)).Methods("DELETE")

	// Course routes
	s.router.HandleFunc("/api/courses", s.listCourses).Methods("GET")
	s.handle("/api/courses", instructor, s.createCourse).Methods("POST")
	s.router.HandleFunc("/api/courses/search", s.searchCourses).Methods("GET")
	s.router.HandleFunc("/api/courses/instructor/{instructorId}", s.listCoursesByInstructor).Methods("GET")
	s.handle("/api/courses/student/{studentId}", authOnly, s.listCoursesByStudent).Methods("GET")
	s.router.HandleFunc("/api/courses/{id}", s.getCourse).Methods("GET")
	s.handle("/api/courses/{id}", adminOrInstructor, s.updateCourse).Methods("PUT")
	s.handle("/api/courses/{id}", admin, s.deleteCourse).Methods("DELETE")

	// Enrollment routes
	s.handle("/api/courses/{id}/enroll", authOnly, s.enroll).Methods("POST")
	s.handle("/api/courses/{id}/enroll", authOnly, s.unenroll).Methods("DELETE")
	s.handle("/api/courses/{id}/enrollments", adminOrInstructor, s.listEnrollments).Methods("GET")
	s.router.HandleFunc("/api/courses/{id}/stats", s.courseStats).Methods("GET")
	s.handle("/api/courses/{id}/students/{studentId}/enrolled", authOnly, s.isEnrolled).Methods("GET")

	// Lesson routes
	s.router.HandleFunc("/api/courses/{id}/lessons", s.listLessons).Methods("GET")
	s.handle("/api/courses/{id}/lessons", adminOrInstructor, s.createLesson).Methods("POST")
	s.handle("/api/courses/{id}/lessons/{lessonId}", adminOrInstructor, s.updateLesson).Methods("PUT")
	s.handle("/api/courses/{id}/lessons/{lessonId}", adminOrInstructor, s.deleteLesson).Methods("DELETE")
	s.handle("/api/courses/{id}/lessons/{lessonId}/otp", adminOrInstructor, s.generateLessonOTP).Methods("POST")
	s.handle("/api/courses/{id}/lessons/{lessonId}/attend", authOnly, s.attendLesson).Methods("POST")

	// Operational routes
	if s.health != nil {
		s.router.Handle("/healthz", s.health).Methods("GET")
	}
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
}

// authOnly gates a route on any authenticated principal.
var authOnly = func(next http.Handler) http.Handler { return middleware.RequireAuth(next) }

func (s *Server) handle(path string, gate func(http.Handler) http.Handler, h http.HandlerFunc) *mux.Route {
	return s.router.Handle(path, gate(h))
}

// denyAccess records and writes a 403 from the fine-grained policy.
func (s *Server) denyAccess(w http.ResponseWriter, resource auth.ResourceType) {
	s.metrics.AccessDeniedTotal.WithLabelValues(string(resource)).Inc()
	httputil.WriteForbidden(w, "access denied")
}

// writeStoreError maps persistence errors onto HTTP statuses. Anything not in
// the taxonomy is logged and reported as a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		httputil.WriteNotFoundError(w, "not found")
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, auth.ErrConflict):
		httputil.WriteConflict(w, "already exists")
	case errors.Is(err, auth.ErrInvalidRole):
		httputil.WriteBadRequest(w, "invalid role")
	default:
		s.logger.WithError(err).Error("request failed")
		httputil.WriteInternalError(w, errors.New("internal error"))
	}
}
