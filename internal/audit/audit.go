package audit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Actions recorded for administrative mutations.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionImport = "import"
	ActionLogin  = "login"
)

// Resource types.
const (
	ResourceDevice        = "device"
	ResourceConnection    = "connection"
	ResourceLifecycleRule = "lifecycle_rule"
	ResourceImportBatch   = "import_batch"
	ResourceSession       = "session"
)

// Entry represents an audit log entry.
type Entry struct {
	ID            string
	Actor         string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NopLogger discards entries.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(context.Context, Entry) error { return nil }

// NewID generates a random audit id.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
}

// DigestJSON computes a SHA256 hex digest for metadata payloads.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MustMetadata marshals metadata, dropping it when it cannot be encoded.
func MustMetadata(value any) json.RawMessage {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return raw
}
