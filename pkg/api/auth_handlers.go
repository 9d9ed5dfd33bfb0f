package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/httputil"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// login exchanges credentials for a bearer token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") ||
		!httputil.RequireNonEmpty(w, req.UserType, "userType") {
		return
	}

	resp, err := s.authn.Login(r.Context(), req.Username, req.Password, req.UserType)
	if err != nil {
		role := strings.ToUpper(req.UserType)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.metrics.LoginsTotal.WithLabelValues(role, "failure").Inc()
			httputil.WriteUnauthorized(w, "invalid credentials")
		case errors.Is(err, auth.ErrInvalidRole):
			httputil.WriteBadRequest(w, "unknown user type")
		default:
			s.logger.WithError(err).WithField("username", req.Username).Error("login failed")
			httputil.WriteInternalError(w, errors.New("internal error"))
		}
		return
	}

	s.metrics.LoginsTotal.WithLabelValues(string(resp.Role), "success").Inc()
	s.metrics.TokensIssuedTotal.Inc()
	httputil.WriteSuccess(w, resp)
}

// register creates an account and returns a token, identical in shape to
// login.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") ||
		!httputil.RequireNonEmpty(w, req.Email, "email") ||
		!httputil.RequireNonEmpty(w, req.UserType, "userType") {
		return
	}

	resp, err := s.authn.Register(r.Context(), req)
	if err != nil {
		role := strings.ToUpper(req.UserType)
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			s.metrics.RegistrationsTotal.WithLabelValues(role, "conflict").Inc()
			httputil.WriteConflict(w, "username already taken")
		case errors.Is(err, auth.ErrEmailTaken):
			s.metrics.RegistrationsTotal.WithLabelValues(role, "conflict").Inc()
			httputil.WriteConflict(w, "email already registered")
		case errors.Is(err, auth.ErrInvalidRole):
			httputil.WriteBadRequest(w, "unknown user type")
		default:
			s.logger.WithError(err).WithField("username", req.Username).Error("registration failed")
			httputil.WriteInternalError(w, errors.New("internal error"))
		}
		return
	}

	s.metrics.RegistrationsTotal.WithLabelValues(string(resp.Role), "success").Inc()
	s.metrics.TokensIssuedTotal.Inc()
	httputil.WriteCreated(w, resp)
}
