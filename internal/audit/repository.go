package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Repository stores audit entries in Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new audit repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the audit_logs table when missing
func (r *Repository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id          BIGSERIAL PRIMARY KEY,
			action      TEXT        NOT NULL,
			actor_id    TEXT        NOT NULL,
			entity_id   TEXT        NOT NULL,
			description TEXT        NOT NULL,
			changes     JSONB,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity_id, created_at DESC);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate audit_logs: %w", err)
	}
	return nil
}

// Record implements Sink
func (r *Repository) Record(ctx context.Context, entry *Entry) error {
	var changes []byte
	if len(entry.Changes) > 0 {
		var err error
		changes, err = json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("failed to encode audit changes: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (action, actor_id, entity_id, description, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		entry.Action,
		entry.ActorID,
		entry.EntityID,
		entry.Description,
		changes,
		entry.CreatedAt,
	).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// List retrieves audit entries, newest first, optionally restricted to one entity
func (r *Repository) List(ctx context.Context, entityID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE ($1 = '' OR entity_id = $1)`
	if err := r.db.QueryRowContext(ctx, countQuery, entityID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := `
		SELECT id, action, actor_id, entity_id, description, changes, created_at
		FROM audit_logs
		WHERE ($1 = '' OR entity_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var changes []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActorID,
			&entry.EntityID,
			&entry.Description,
			&changes,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &entry.Changes); err != nil {
				return nil, 0, fmt.Errorf("failed to decode audit changes: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}
