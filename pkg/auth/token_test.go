package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret-key"), time.Hour)

	token, err := codec.Issue("alice", RoleStudent, 5)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.Equal(t, 5, claims.UserID)

	p := claims.Principal()
	assert.Equal(t, &Principal{Username: "alice", UserID: 5, Role: RoleStudent}, p)
}

func TestTokenCodec_RoundTripAllRoles(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret-key"), time.Hour)

	for _, role := range []Role{RoleStudent, RoleInstructor, RoleAdmin} {
		token, err := codec.Issue("user", role, 42)
		require.NoError(t, err)

		claims, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, role, claims.Role)
		assert.Equal(t, 42, claims.UserID)
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec([]byte("test-secret-key"), time.Hour).
		WithClock(func() time.Time { return issuedAt })

	token, err := codec.Issue("alice", RoleStudent, 5)
	require.NoError(t, err)

	// Still valid just inside the window.
	almost := codec.WithClock(func() time.Time { return issuedAt.Add(59 * time.Minute) })
	_, err = almost.Decode(token)
	require.NoError(t, err)

	// Lapsed past the window.
	lapsed := codec.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = lapsed.Decode(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_TamperedSignature(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret-key"), time.Hour)

	token, err := codec.Issue("alice", RoleStudent, 5)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Flip one byte of the signature segment.
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestTokenCodec_WrongKey(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret-key"), time.Hour)
	other := NewTokenCodec([]byte("a-different-key"), time.Hour)

	token, err := codec.Issue("alice", RoleStudent, 5)
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret-key"), time.Hour)

	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d", "!!!.???.###"} {
		_, err := codec.Decode(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestTokenCodec_DefaultTTL(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec([]byte("test-secret-key"), 0).
		WithClock(func() time.Time { return issuedAt })

	token, err := codec.Issue("alice", RoleAdmin, 1)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}
