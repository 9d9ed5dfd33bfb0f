package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword produces a salted bcrypt digest of the plaintext.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether plaintext matches the stored digest. This is
// the only way to test equality; digests are never compared directly. A
// malformed digest yields false, never an error to the caller.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
