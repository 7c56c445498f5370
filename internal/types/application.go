package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OfferLetterStatus tracks the offer letter sent for an application.
type OfferLetterStatus string

// OfferLetterStatus values
const (
	OfferNotSent  OfferLetterStatus = "not_sent"
	OfferSent     OfferLetterStatus = "sent"
	OfferAccepted OfferLetterStatus = "accepted"
	OfferRejected OfferLetterStatus = "rejected"
	OfferJoined   OfferLetterStatus = "joined"
)

// Valid reports whether s is a known offer letter status.
func (s OfferLetterStatus) Valid() bool {
	switch s {
	case OfferNotSent, OfferSent, OfferAccepted, OfferRejected, OfferJoined:
		return true
	default:
		return false
	}
}

// Application is one person's bid for one recruitment. It carries a snapshot of the
// profile taken at apply time, so profile and application edits never leak into each other.
type Application struct {
	ID            uuid.UUID `json:"id"`
	RecruitmentID uuid.UUID `json:"recruitment_id"`
	Email         string    `json:"email"`
	PersonalDetails
	JobPositionID *uuid.UUID `json:"job_position_id,omitempty"`
	Staffing      Staffing   `json:"-"`

	StageID      uuid.UUID  `json:"stage_id"`
	Sequence     int        `json:"sequence"`
	ScheduleDate *time.Time `json:"schedule_date,omitempty"`

	Hired             bool              `json:"hired"`
	Canceled          bool              `json:"canceled"`
	StartOnboard      bool              `json:"start_onboard"`
	CancelReason      string            `json:"cancel_reason,omitempty"`
	OfferLetterStatus OfferLetterStatus `json:"offer_letter_status"`

	JoiningDate  *time.Time `json:"joining_date,omitempty"`
	ProbationEnd *time.Time `json:"probation_end,omitempty"`
	HiredDate    *time.Time `json:"hired_date,omitempty"`

	ConvertedEmployeeID *uuid.UUID `json:"converted_employee_id,omitempty"`
	Archived            bool       `json:"archived"`
	Version             int        `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Terminal reports whether the application reached hired or canceled.
func (a *Application) Terminal() bool {
	return a.Hired || a.Canceled
}

type applicationAlias Application

// MarshalJSON renders the staffing variant in its flat form.
func (a Application) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		applicationAlias
		Staffing StaffingInput `json:"staffing"`
	}{
		applicationAlias: applicationAlias(a),
		Staffing:         Flatten(a.Staffing),
	})
}
