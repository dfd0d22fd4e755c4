package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository writes audit logs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if entry.Action == "" || entry.ResourceType == "" {
		return errors.New("audit repo: action and resource type are required")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}

	var metadata any
	if len(entry.Metadata) > 0 {
		metadata = string(entry.Metadata)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (
	id, actor, action, resource_type, resource_id,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, entry.ID, entry.Actor, entry.Action, entry.ResourceType, entry.ResourceID,
		metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// Recent returns the newest entries first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, actor, action, resource_type, resource_id, metadata, payload_digest, ip, user_agent, created_at
FROM audit_logs
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var (
			entry                                           Entry
			actor, resourceID, metadata, digest, ip, agent sql.NullString
		)
		if err := rows.Scan(&entry.ID, &actor, &entry.Action, &entry.ResourceType, &resourceID, &metadata, &digest, &ip, &agent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Actor = actor.String
		entry.ResourceID = resourceID.String
		if metadata.Valid {
			entry.Metadata = []byte(metadata.String)
		}
		entry.PayloadDigest = digest.String
		entry.IP = ip.String
		entry.UserAgent = agent.String
		entry.CreatedAt = entry.CreatedAt.UTC()
		result = append(result, entry)
	}
	return result, rows.Err()
}
