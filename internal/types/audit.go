package types

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names an audited collection.
type EntityType string

// EntityType values
const (
	EntityCandidate   EntityType = "candidate"
	EntityApplication EntityType = "application"
)

// AuditAction names the operation that produced an audit entry.
type AuditAction string

// AuditAction values
const (
	ActionCreate      AuditAction = "create"
	ActionUpdate      AuditAction = "update"
	ActionStageChange AuditAction = "stage_change"
	ActionHire        AuditAction = "hire"
	ActionCancel      AuditAction = "cancel"
	ActionOnboard     AuditAction = "onboard"
	ActionOfferStatus AuditAction = "offer_status"
	ActionSchedule    AuditAction = "schedule"
	ActionArchive     AuditAction = "archive"
	ActionConvert     AuditAction = "convert"
)

// FieldChange is one field-level diff. Values use the canonical string form; "" means unset.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// AuditEntry is one append-only history record. Seq increases by one per entity.
type AuditEntry struct {
	ID          uuid.UUID     `json:"id"`
	EntityType  EntityType    `json:"entity_type"`
	EntityID    uuid.UUID     `json:"entity_id"`
	Seq         int64         `json:"seq"`
	Actor       uuid.UUID     `json:"actor"`
	Action      AuditAction   `json:"action"`
	Changes     []FieldChange `json:"changes"`
	FromStageID *uuid.UUID    `json:"from_stage_id,omitempty"`
	ToStageID   *uuid.UUID    `json:"to_stage_id,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Actor identifies who performs an operation.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}
