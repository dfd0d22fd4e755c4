package auth

import (
	"context"
	"net/http"
	"strings"
)

// Header and form field carrying the shared administrative password.
const (
	PasswordHeader = "X-Admin-Password"
	PasswordField  = "password"
)

// Middleware gates mutating requests behind the administrative credential:
// the shared password or, when a secret is set, an admin token.
type Middleware struct {
	Verifier Verifier
	Secret   []byte
	Policy   Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(verifier Verifier, secret []byte, policy Policy) *Middleware {
	return &Middleware{Verifier: verifier, Secret: secret, Policy: policy}
}

// Wrap applies the credential check to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) || !m.Policy.RequiresCredential(r) {
			next.ServeHTTP(w, r)
			return
		}
		ctx, ok := m.Authenticate(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate checks the request's credential and returns a context
// carrying the identity.
func (m *Middleware) Authenticate(r *http.Request) (ctx context.Context, ok bool) {
	if token := extractBearer(r); token != "" && len(m.Secret) > 0 {
		claims, err := ParseJWT(token, m.Secret)
		if err != nil {
			return r.Context(), false
		}
		return WithIdentity(r.Context(), claims.Subject, MethodToken), true
	}
	if m.Verifier == nil {
		return r.Context(), false
	}
	candidate := r.Header.Get(PasswordHeader)
	if candidate == "" {
		candidate = r.FormValue(PasswordField)
	}
	if !m.Verifier.Verify(candidate) {
		return r.Context(), false
	}
	return WithIdentity(r.Context(), RoleAdmin, MethodPassword), true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
