package types

import (
	"time"

	"github.com/google/uuid"
)

// StageType classifies a pipeline stage.
type StageType string

// StageType values
const (
	StageSourced     StageType = "sourced"
	StageShortlisted StageType = "shortlisted"
	StageTest        StageType = "test"
	StageInterview   StageType = "interview"
	StageSelected    StageType = "selected"
	StageRejected    StageType = "rejected"
	StageOnHold      StageType = "on-hold"
	StageCancelled   StageType = "cancelled"
)

// Valid reports whether t is a known stage type.
func (t StageType) Valid() bool {
	switch t {
	case StageSourced, StageShortlisted, StageTest, StageInterview,
		StageSelected, StageRejected, StageOnHold, StageCancelled:
		return true
	default:
		return false
	}
}

// Recruitment is a job opening with its own stage pipeline.
type Recruitment struct {
	ID            uuid.UUID   `json:"id"`
	Title         string      `json:"title"`
	CompanyID     *uuid.UUID  `json:"company_id,omitempty"`
	JobPositionID *uuid.UUID  `json:"job_position_id,omitempty"`
	ManagerIDs    []uuid.UUID `json:"manager_ids,omitempty"`
	Closed        bool        `json:"closed"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Stage is a named step of a recruitment pipeline, ordered by Position.
type Stage struct {
	ID            uuid.UUID   `json:"id"`
	RecruitmentID uuid.UUID   `json:"recruitment_id"`
	Name          string      `json:"name"`
	Type          StageType   `json:"type"`
	Position      int         `json:"position"`
	ManagerIDs    []uuid.UUID `json:"manager_ids,omitempty"`
}

// StageTemplate describes a stage created for every new recruitment.
type StageTemplate struct {
	Name string    `yaml:"name" json:"name" validate:"required,max=50"`
	Type StageType `yaml:"type" json:"type" validate:"required"`
}

// StageNotice is sent to the managers of the stage an application moved into.
type StageNotice struct {
	ManagerIDs    []uuid.UUID `json:"-"`
	ApplicationID uuid.UUID   `json:"application_id"`
	RecruitmentID uuid.UUID   `json:"recruitment_id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	FromStageID   uuid.UUID   `json:"from_stage_id"`
	ToStageID     uuid.UUID   `json:"to_stage_id"`
	ToStageName   string      `json:"to_stage_name"`
	Actor         uuid.UUID   `json:"actor"`
	At            time.Time   `json:"at"`
}
