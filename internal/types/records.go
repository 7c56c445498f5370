package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Interview is a scheduled interview for an application.
type Interview struct {
	ID             uuid.UUID   `json:"id"`
	ApplicationID  uuid.UUID   `json:"application_id"`
	ScheduledAt    time.Time   `json:"scheduled_at"`
	InterviewerIDs []uuid.UUID `json:"interviewer_ids"`
	Description    string      `json:"description,omitempty"`
	Completed      bool        `json:"completed"`
	CreatedAt      time.Time   `json:"created_at"`
}

// StageNote is an append-only note attached to an application in a given stage.
type StageNote struct {
	ID               uuid.UUID `json:"id"`
	ApplicationID    uuid.UUID `json:"application_id"`
	StageID          uuid.UUID `json:"stage_id"`
	AuthorID         uuid.UUID `json:"author_id"`
	Text             string    `json:"text"`
	PlainText        string    `json:"plain_text"`
	Attachments      []string  `json:"attachments,omitempty"`
	CandidateCanView bool      `json:"candidate_can_view"`
	Deleted          bool      `json:"deleted"`
	CreatedAt        time.Time `json:"created_at"`
}

// SurveyQuestion is a recruitment survey question. AnswerSchema, when set,
// is a JSON Schema every answer must satisfy.
type SurveyQuestion struct {
	ID            uuid.UUID       `json:"id"`
	RecruitmentID uuid.UUID       `json:"recruitment_id"`
	Question      string          `json:"question"`
	Mandatory     bool            `json:"mandatory"`
	AnswerSchema  json.RawMessage `json:"answer_schema,omitempty"`
	Position      int             `json:"position"`
}

// SurveyAnswer is an immutable answer to one question for one application.
type SurveyAnswer struct {
	ID            uuid.UUID       `json:"id"`
	ApplicationID uuid.UUID       `json:"application_id"`
	QuestionID    uuid.UUID       `json:"question_id"`
	RecruitmentID uuid.UUID       `json:"recruitment_id"`
	Answer        json.RawMessage `json:"answer"`
	AttachmentRef string          `json:"attachment_ref,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// Employee is the record produced by converting a hired application.
type Employee struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	PersonalDetails
	JobPositionID       *uuid.UUID `json:"job_position_id,omitempty"`
	RecruitmentID       uuid.UUID  `json:"recruitment_id"`
	Staffing            Staffing   `json:"-"`
	JoiningDate         *time.Time `json:"joining_date,omitempty"`
	ProbationEnd        *time.Time `json:"probation_end,omitempty"`
	SourceApplicationID uuid.UUID  `json:"source_application_id"`
	CreatedAt           time.Time  `json:"created_at"`
}

type employeeAlias Employee

// MarshalJSON renders the staffing variant in its flat form.
func (e Employee) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		employeeAlias
		Staffing StaffingInput `json:"staffing"`
	}{
		employeeAlias: employeeAlias(e),
		Staffing:      Flatten(e.Staffing),
	})
}
