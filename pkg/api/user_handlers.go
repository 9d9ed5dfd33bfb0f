package api

import (
	"errors"
	"net/http"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/httputil"
	"github.com/eduelevate/lms/pkg/middleware"
)

// The student, instructor, and admin resources share one handler set
// parameterized by role; only the route gates and the instructor profile
// fields differ.

// listUsers returns every account in one role partition. The route gates
// already enforce the coarse rule; auth.CanList is the fine-grained check.
func (s *Server) listUsers(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.Principal(r)
		resource := auth.ResourceFor(role)
		if !auth.CanList(p, resource) {
			s.denyAccess(w, resource)
			return
		}

		users, err := s.users.FindAll(r.Context(), role)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, users)
	}
}

// createUser provisions an account directly, without issuing a token. The
// username and email must be unused across all three partitions.
func (s *Server) createUser(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if !httputil.ParseJSONOrError(w, r, &req) {
			return
		}
		if !httputil.RequireNonEmpty(w, req.Username, "username") ||
			!httputil.RequireNonEmpty(w, req.Password, "password") ||
			!httputil.RequireNonEmpty(w, req.Email, "email") {
			return
		}

		if taken, err := s.users.UsernameTaken(r.Context(), req.Username); err != nil {
			s.writeStoreError(w, err)
			return
		} else if taken {
			httputil.WriteConflict(w, "username already taken")
			return
		}
		if taken, err := s.users.EmailTaken(r.Context(), req.Email); err != nil {
			s.writeStoreError(w, err)
			return
		} else if taken {
			httputil.WriteConflict(w, "email already registered")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.WithError(err).Error("hashing password")
			httputil.WriteInternalError(w, errors.New("internal error"))
			return
		}

		user, err := s.users.Create(r.Context(), &auth.User{
			Role:           role,
			Username:       req.Username,
			Email:          req.Email,
			PasswordHash:   hash,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Department:     req.Department,
			Bio:            req.Bio,
			Specialization: req.Specialization,
		})
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteCreated(w, user)
	}
}

// getUser returns one account, subject to the ownership policy.
func (s *Server) getUser(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParsePathIntOrError(w, r, "id")
		if !ok {
			return
		}

		p := middleware.Principal(r)
		resource := auth.ResourceFor(role)
		if !auth.CanAccess(p, id, resource) {
			s.denyAccess(w, resource)
			return
		}

		user, err := s.users.FindByID(r.Context(), role, id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, user)
	}
}

// updateUser rewrites the mutable account fields. Email changes re-check
// global uniqueness; password changes re-hash.
func (s *Server) updateUser(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParsePathIntOrError(w, r, "id")
		if !ok {
			return
		}

		p := middleware.Principal(r)
		resource := auth.ResourceFor(role)
		if !auth.CanAccess(p, id, resource) {
			s.denyAccess(w, resource)
			return
		}

		var req updateUserRequest
		if !httputil.ParseJSONOrError(w, r, &req) {
			return
		}

		user, err := s.users.FindByID(r.Context(), role, id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}

		if req.Email != nil && *req.Email != user.Email {
			taken, err := s.users.EmailTaken(r.Context(), *req.Email)
			if err != nil {
				s.writeStoreError(w, err)
				return
			}
			if taken {
				httputil.WriteConflict(w, "email already registered")
				return
			}
			user.Email = *req.Email
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				s.logger.WithError(err).Error("hashing password")
				httputil.WriteInternalError(w, errors.New("internal error"))
				return
			}
			user.PasswordHash = hash
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if role == auth.RoleInstructor {
			if req.Department != nil {
				user.Department = *req.Department
			}
			if req.Bio != nil {
				user.Bio = *req.Bio
			}
			if req.Specialization != nil {
				user.Specialization = *req.Specialization
			}
		}

		updated, err := s.users.Update(r.Context(), user)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteSuccess(w, updated)
	}
}

// deleteUser removes one account, subject to the ownership policy.
func (s *Server) deleteUser(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParsePathIntOrError(w, r, "id")
		if !ok {
			return
		}

		p := middleware.Principal(r)
		resource := auth.ResourceFor(role)
		if !auth.CanAccess(p, id, resource) {
			s.denyAccess(w, resource)
			return
		}

		if err := s.users.Delete(r.Context(), role, id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		httputil.WriteNoContent(w)
	}
}
