package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window applied when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// Claims are the identity claims carried by an issued token.
type Claims struct {
	Role   Role `json:"role"`
	UserID int  `json:"userId"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies compact self-contained session tokens. The
// signing key and TTL are fixed at construction; the codec holds no other
// state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec signing with the given symmetric secret. A
// non-positive ttl falls back to DefaultTokenTTL.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the codec using the given time source. Used by
// tests to exercise expiry without sleeping.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	return &TokenCodec{secret: c.secret, ttl: c.ttl, now: now}
}

// Issue signs a token carrying the subject, role and user id, valid from now
// until now plus the configured TTL.
func (c *TokenCodec) Issue(username string, role Role, userID int) (string, error) {
	now := c.now()
	claims := Claims{
		Role:   role,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and extracts its claims. Signature integrity is
// checked before any claim; a lapsed expiry yields ErrTokenExpired, a
// signature mismatch ErrTokenSignature, and any structural problem
// ErrTokenMalformed. Nothing else is validated: there is no revocation list
// and no issuer or audience check.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing identity claims", ErrTokenMalformed)
	}
	return claims, nil
}

// Principal builds the request identity carried by these claims.
func (c *Claims) Principal() *Principal {
	return &Principal{Username: c.Subject, UserID: c.UserID, Role: c.Role}
}
