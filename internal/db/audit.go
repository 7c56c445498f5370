package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// insertAudit appends an entry, assigning the next per-entity seq. It runs inside the
// transaction that writes the record, before the record itself.
func insertAudit(ctx context.Context, tx pgx.Tx, entry *types.AuditEntry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	changes := entry.Changes
	if changes == nil {
		changes = []types.FieldChange{}
	}
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO audit_entries (id, entity_type, entity_id, seq, actor, action, changes,
		                            from_stage_id, to_stage_id, reason, created_at)
		 SELECT $1, $2, $3, COALESCE(MAX(seq), 0) + 1, $4, $5, $6, $7, $8, $9, $10
		 FROM audit_entries WHERE entity_type = $2 AND entity_id = $3
		 RETURNING seq`,
		entry.ID, string(entry.EntityType), entry.EntityID, entry.Actor, string(entry.Action), changesJSON,
		entry.FromStageID, entry.ToStageID, entry.Reason, entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w",
			translateFor(err, violation{entity: string(entry.EntityType), id: entry.EntityID}))
	}
	return nil
}

// AuditPage returns up to limit entries with seq greater than afterSeq, in seq order.
// A non-positive limit returns every remaining entry.
func (db *DB) AuditPage(ctx context.Context, entityType types.EntityType, entityID uuid.UUID, afterSeq int64, limit int) ([]types.AuditEntry, error) {
	query := `SELECT id, entity_type, entity_id, seq, actor, action, changes,
	                 from_stage_id, to_stage_id, reason, created_at
	          FROM audit_entries
	          WHERE entity_type = $1 AND entity_id = $2 AND seq > $3
	          ORDER BY seq`
	args := []any{string(entityType), entityID, afterSeq}
	if limit > 0 {
		query += " LIMIT $4"
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Seq, &e.Actor, &e.Action, &changes,
			&e.FromStageID, &e.ToStageID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit changes: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
