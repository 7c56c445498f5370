package recruitment

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrDuplicateApplication indicates a non-archived application already exists for the email and recruitment
type ErrDuplicateApplication struct {
	Email         string
	RecruitmentID uuid.UUID
}

func (e *ErrDuplicateApplication) Error() string {
	return fmt.Sprintf("application already exists for %s in recruitment %s", e.Email, e.RecruitmentID)
}

// ErrDuplicateProfile indicates a profile with the email already exists
type ErrDuplicateProfile struct {
	Email string
}

func (e *ErrDuplicateProfile) Error() string {
	return fmt.Sprintf("profile already exists: %s", e.Email)
}

// ErrInvalidStage indicates the stage does not belong to the recruitment
type ErrInvalidStage struct {
	StageID       uuid.UUID
	RecruitmentID uuid.UUID
}

func (e *ErrInvalidStage) Error() string {
	if e.StageID == uuid.Nil {
		return fmt.Sprintf("recruitment %s has no stages", e.RecruitmentID)
	}
	return fmt.Sprintf("stage %s does not belong to recruitment %s", e.StageID, e.RecruitmentID)
}

// ErrInvalidTransition indicates an illegal combination of outcome flags
type ErrInvalidTransition struct {
	ApplicationID uuid.UUID
	Reason        string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition for application %s: %s", e.ApplicationID, e.Reason)
}

// ErrTerminalState indicates a mutation on a hired or canceled application.
// It unwraps to an ErrInvalidTransition.
type ErrTerminalState struct {
	ApplicationID uuid.UUID
	Op            string
}

func (e *ErrTerminalState) Error() string {
	return fmt.Sprintf("cannot %s application %s: application is hired or canceled", e.Op, e.ApplicationID)
}

func (e *ErrTerminalState) Unwrap() error {
	return &ErrInvalidTransition{ApplicationID: e.ApplicationID, Reason: "application is hired or canceled"}
}

// ErrAlreadyConverted indicates the profile or application was already converted to an employee
type ErrAlreadyConverted struct {
	Email      string
	EmployeeID uuid.UUID
}

func (e *ErrAlreadyConverted) Error() string {
	return fmt.Sprintf("%s already converted to employee %s", e.Email, e.EmployeeID)
}

// ErrConflict indicates a concurrent write collision. Callers should re-read and retry.
type ErrConflict struct {
	Entity string
	ID     uuid.UUID
	Reason string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("conflicting write on %s %s: %s", e.Entity, e.ID, e.Reason)
}

// ErrNotFound indicates a missing entity
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ErrValidation indicates invalid input
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrForbidden indicates the actor may not perform the operation
type ErrForbidden struct {
	Reason string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// ErrDuplicateAnswer indicates the survey question was already answered for the application
type ErrDuplicateAnswer struct {
	QuestionID    uuid.UUID
	ApplicationID uuid.UUID
}

func (e *ErrDuplicateAnswer) Error() string {
	return fmt.Sprintf("question %s already answered for application %s", e.QuestionID, e.ApplicationID)
}

func notFound(entity string, id uuid.UUID) error {
	return &ErrNotFound{Entity: entity, ID: id.String()}
}

// validationError converts struct tag failures into an ErrValidation naming the first bad field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed on %s", fe.Tag())}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}
