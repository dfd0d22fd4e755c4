package auth

import (
	"crypto/subtle"
	"errors"
)

// ErrUnauthorized indicates a missing or wrong credential.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks an administrative credential.
type Verifier interface {
	Verify(candidate string) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(candidate string) bool

// Verify implements Verifier.
func (f VerifierFunc) Verify(candidate string) bool { return f(candidate) }

// PasswordVerifier compares against one shared secret in constant time.
type PasswordVerifier struct {
	password []byte
}

// NewPasswordVerifier constructs a verifier. An empty password never matches.
func NewPasswordVerifier(password string) *PasswordVerifier {
	return &PasswordVerifier{password: []byte(password)}
}

// Verify implements Verifier.
func (v *PasswordVerifier) Verify(candidate string) bool {
	if v == nil || len(v.password) == 0 || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare(v.password, []byte(candidate)) == 1
}
