package auth

import "errors"

var (
	// ErrInvalidCredentials covers both "unknown user" and "wrong password".
	// The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidRole indicates an unrecognized user type string.
	ErrInvalidRole = errors.New("invalid user type")

	// ErrUsernameTaken indicates the username exists in some partition.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrEmailTaken indicates the email exists in some partition.
	ErrEmailTaken = errors.New("email is already in use")

	// ErrTokenMalformed indicates a structurally invalid token.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrTokenExpired indicates a token past its expiry claim.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenSignature indicates a signature mismatch.
	ErrTokenSignature = errors.New("invalid token signature")

	// ErrAccessDenied indicates the access policy rejected the request.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound is returned by CredentialStore lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by CredentialStore.Create when a uniqueness
	// constraint rejects the insert.
	ErrConflict = errors.New("record already exists")
)
