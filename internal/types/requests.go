package types

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Validate runs struct tag validation on any request type.
func Validate(req any) error {
	return validate.Struct(req)
}

// CreateProfileRequest creates a candidate profile.
type CreateProfileRequest struct {
	Email   string          `json:"email" validate:"required,email,max=254"`
	Details PersonalDetails `json:"details"`
}

// ProfilePatch updates a profile. Nil fields are left untouched; Email is immutable.
type ProfilePatch struct {
	Email           *string    `json:"email,omitempty"`
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Mobile          *string    `json:"mobile,omitempty" validate:"omitempty,max=15"`
	Portfolio       *string    `json:"portfolio,omitempty" validate:"omitempty,url"`
	ResumeRef       *string    `json:"resume_ref,omitempty"`
	ProfileImageRef *string    `json:"profile_image_ref,omitempty"`
	Address         *string    `json:"address,omitempty" validate:"omitempty,max=255"`
	Country         *string    `json:"country,omitempty" validate:"omitempty,max=30"`
	State           *string    `json:"state,omitempty" validate:"omitempty,max=30"`
	City            *string    `json:"city,omitempty" validate:"omitempty,max=30"`
	Zip             *string    `json:"zip,omitempty" validate:"omitempty,max=30"`
	DOB             *time.Time `json:"dob,omitempty"`
	Gender          *Gender    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Source          *Source    `json:"source,omitempty"`
	ReferralID      *uuid.UUID `json:"referral_id,omitempty"`
}

// ApplyRequest applies a person to a recruitment. The profile is created when it does
// not exist yet; Details overrides profile values in the application snapshot.
type ApplyRequest struct {
	Email         string           `json:"email" validate:"required,email,max=254"`
	RecruitmentID uuid.UUID        `json:"recruitment_id" validate:"required"`
	StageID       *uuid.UUID       `json:"stage_id,omitempty"`
	JobPositionID *uuid.UUID       `json:"job_position_id,omitempty"`
	Details       *PersonalDetails `json:"details,omitempty"`
	Staffing      StaffingInput    `json:"staffing"`
}

// ApplicationPatch updates the snapshot of an application. Email and RecruitmentID are
// present only so that attempts to change them can be rejected.
type ApplicationPatch struct {
	Email         *string        `json:"email,omitempty"`
	RecruitmentID *uuid.UUID     `json:"recruitment_id,omitempty"`
	Details       ProfilePatch   `json:"details"`
	JobPositionID *uuid.UUID     `json:"job_position_id,omitempty"`
	Staffing      *StaffingInput `json:"staffing,omitempty"`
}

// MoveStageRequest moves an application to another stage of its recruitment.
type MoveStageRequest struct {
	StageID         uuid.UUID `json:"stage_id" validate:"required"`
	ExpectedVersion int       `json:"expected_version,omitempty" validate:"min=0"`
}

// HireRequest marks an application hired.
type HireRequest struct {
	JoiningDate     time.Time `json:"joining_date" validate:"required"`
	ExpectedVersion int       `json:"expected_version,omitempty" validate:"min=0"`
}

// CancelRequest marks an application canceled.
type CancelRequest struct {
	Reason          string `json:"reason" validate:"max=255"`
	ExpectedVersion int    `json:"expected_version,omitempty" validate:"min=0"`
}

// OfferStatusRequest changes the offer letter status.
type OfferStatusRequest struct {
	Status OfferLetterStatus `json:"status" validate:"required,oneof=not_sent sent accepted rejected joined"`
}

// ReorderRequest sets the manual order of the applications within one stage.
type ReorderRequest struct {
	ApplicationIDs []uuid.UUID `json:"application_ids" validate:"required,min=1"`
}

// ScheduleInterviewRequest schedules an interview for an application.
type ScheduleInterviewRequest struct {
	ScheduledAt    time.Time   `json:"scheduled_at" validate:"required"`
	InterviewerIDs []uuid.UUID `json:"interviewer_ids" validate:"required,min=1"`
	Description    string      `json:"description,omitempty" validate:"max=255"`
}

// AddNoteRequest adds a stage note to an application.
type AddNoteRequest struct {
	Text             string   `json:"text" validate:"required,max=4000"`
	Attachments      []string `json:"attachments,omitempty"`
	CandidateCanView bool     `json:"candidate_can_view"`
}

// SurveyAnswerRequest submits an answer to a recruitment survey question.
type SurveyAnswerRequest struct {
	QuestionID    uuid.UUID       `json:"question_id" validate:"required"`
	Answer        json.RawMessage `json:"answer" validate:"required"`
	AttachmentRef string          `json:"attachment_ref,omitempty"`
}

// CreateRecruitmentRequest opens a recruitment. Stages default to the configured template.
type CreateRecruitmentRequest struct {
	Title         string          `json:"title" validate:"required,max=100"`
	CompanyID     *uuid.UUID      `json:"company_id,omitempty"`
	JobPositionID *uuid.UUID      `json:"job_position_id,omitempty"`
	ManagerIDs    []uuid.UUID     `json:"manager_ids,omitempty"`
	Stages        []StageTemplate `json:"stages,omitempty" validate:"dive"`
}

// CreateSurveyQuestionRequest adds a survey question to a recruitment.
type CreateSurveyQuestionRequest struct {
	Question     string          `json:"question" validate:"required,max=255"`
	Mandatory    bool            `json:"mandatory"`
	AnswerSchema json.RawMessage `json:"answer_schema,omitempty"`
}
