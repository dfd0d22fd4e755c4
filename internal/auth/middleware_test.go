package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newHandler(secret []byte) http.Handler {
	mw := NewMiddleware(NewPasswordVerifier("s3cret"), secret, NewDefaultPolicy([]string{"/api/verify-password"}, nil))
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if MethodFromContext(r.Context()) == "" && r.Method != http.MethodGet && r.URL.Path != "/api/verify-password" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddleware_ReadsAreOpen(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	resp := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_NoCredential(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/devices", nil)
	resp := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/verify-password", nil)
	resp := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_PasswordHeader(t *testing.T) {
	for _, tc := range []struct {
		password string
		want     int
	}{
		{"s3cret", http.StatusOK},
		{"wrong", http.StatusUnauthorized},
	} {
		req := httptest.NewRequest(http.MethodDelete, "/api/devices/1", nil)
		req.Header.Set(PasswordHeader, tc.password)
		resp := httptest.NewRecorder()
		newHandler(nil).ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("password %q: expected %d, got %d", tc.password, tc.want, resp.Code)
		}
	}
}

func TestAuthMiddleware_PasswordFormField(t *testing.T) {
	form := url.Values{PasswordField: {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := IssueToken(secret, "admin", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/lifecycle-rules/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	newHandler(secret).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	// Tokens are ignored when no secret is configured.
	resp = httptest.NewRecorder()
	newHandler(nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", resp.Code)
	}
}

func TestAuthMiddleware_RejectsForeignTokens(t *testing.T) {
	secret := []byte("test-secret")
	for name, token := range map[string]string{
		"expired":     mustToken(t, secret, RoleAdmin, time.Now().Add(-time.Minute)),
		"viewer role": mustToken(t, secret, "viewer", time.Now().Add(time.Hour)),
		"other key":   mustToken(t, []byte("other"), RoleAdmin, time.Now().Add(time.Hour)),
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/connections", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		newHandler(secret).ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, resp.Code)
		}
	}
}

func TestPasswordVerifier(t *testing.T) {
	if NewPasswordVerifier("").Verify("") {
		t.Fatal("empty password must never verify")
	}
	v := NewPasswordVerifier("admin123")
	if !v.Verify("admin123") || v.Verify("admin12") || v.Verify("") {
		t.Fatal("unexpected verification result")
	}
	var f Verifier = VerifierFunc(func(c string) bool { return c == "fixture" })
	if !f.Verify("fixture") {
		t.Fatal("verifier func not called")
	}
}

func mustToken(t *testing.T, secret []byte, role string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
