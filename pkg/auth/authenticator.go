package auth

import (
	"context"
	"errors"
	"fmt"
)

// TokenResponse is the payload returned to clients on successful login or
// registration.
type TokenResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	UserID   int    `json:"userId"`
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserType  string `json:"userType"`
}

// Authenticator validates credentials against the credential store and issues
// tokens. It performs at most one lookup and one hash verification per login.
type Authenticator struct {
	store CredentialStore
	codec *TokenCodec
}

// NewAuthenticator wires an authenticator to its credential store and codec.
func NewAuthenticator(store CredentialStore, codec *TokenCodec) *Authenticator {
	return &Authenticator{store: store, codec: codec}
}

// Login checks the credentials against the partition named by userType and
// returns a bearer token on success. Unknown users and wrong passwords both
// surface as ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password, userType string) (*TokenResponse, error) {
	role, err := ParseRole(userType)
	if err != nil {
		return nil, err
	}

	user, err := a.store.FindByUsername(ctx, role, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s %q: %w", role, username, err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return a.issue(user)
}

// Register creates a new account in the partition named by UserType and
// returns a token identical in shape to Login. Username and email collisions
// are checked across all three partitions, not just the target one, so that
// no two accounts of any role can ever share a username or email. The
// partition's unique index is the final backstop for the pre-check/insert
// race; a duplicate-key rejection is reported as a conflict, never a crash.
func (a *Authenticator) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	role, err := ParseRole(req.UserType)
	if err != nil {
		return nil, err
	}

	taken, err := a.store.UsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = a.store.EmailTaken(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := a.store.Create(ctx, &User{
		Role:         role,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if errors.Is(err, ErrConflict) {
		// Lost the race against a concurrent registration.
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s %q: %w", role, req.Username, err)
	}

	return a.issue(user)
}

func (a *Authenticator) issue(user *User) (*TokenResponse, error) {
	token, err := a.codec.Issue(user.Username, user.Role, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		Token:    token,
		Type:     "Bearer",
		Username: user.Username,
		Role:     user.Role,
		UserID:   user.ID,
	}, nil
}
