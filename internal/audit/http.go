package audit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP from headers or remote address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// FromRequest builds an entry for an administrative mutation. Metadata
// is digested so the trail can be compared without storing payloads twice.
func FromRequest(r *http.Request, actor, action, resourceType, resourceID string, metadata any) Entry {
	meta := MustMetadata(metadata)
	return Entry{
		ID:            NewID(),
		Actor:         actor,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Metadata:      meta,
		PayloadDigest: DigestJSON(meta),
		IP:            ClientIP(r),
		UserAgent:     r.UserAgent(),
	}
}
