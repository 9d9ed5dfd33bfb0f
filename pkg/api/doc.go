// Package api wires the HTTP surface of the LMS server: authentication
// endpoints, the student/instructor/admin account resources, courses,
// enrollments, and lessons.
//
// Route-level role gates reject requests early with 401/403; handlers then
// apply the fine-grained ownership policy from pkg/auth before touching the
// stores. Both layers must pass.
package api
