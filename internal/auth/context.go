package auth

import "context"

type contextKey string

const (
	contextKeySubject contextKey = "auth.subject"
	contextKeyMethod  contextKey = "auth.method"
)

// Credential kinds recorded on authenticated requests.
const (
	MethodPassword = "password"
	MethodToken    = "token"
)

// WithIdentity stores the authenticated subject and credential kind.
func WithIdentity(ctx context.Context, subject, method string) context.Context {
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	ctx = context.WithValue(ctx, contextKeyMethod, method)
	return ctx
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if subject, ok := ctx.Value(contextKeySubject).(string); ok {
		return subject
	}
	return ""
}

// MethodFromContext extracts the credential kind from context.
func MethodFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if method, ok := ctx.Value(contextKeyMethod).(string); ok {
		return method
	}
	return ""
}
