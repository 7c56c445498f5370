package recruitment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/query"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// CandidateWrite is a version-checked profile write together with its audit entry.
type CandidateWrite struct {
	Candidate       *types.Candidate
	ExpectedVersion int
	Entry           *types.AuditEntry
}

// ApplicationInsert creates an application with its audit entry. When Profile is set the
// profile and its entry are created in the same atomic unit, and a taken profile email
// fails the whole insert with *ErrDuplicateProfile.
type ApplicationInsert struct {
	App          *types.Application
	Entry        *types.AuditEntry
	Profile      *types.Candidate
	ProfileEntry *types.AuditEntry
}

// ApplicationWrite is a version-checked application write together with its audit entry.
// A zero App.Sequence places the application at the end of its stage.
type ApplicationWrite struct {
	App             *types.Application
	ExpectedVersion int
	Entry           *types.AuditEntry
}

// ConversionCommit persists the conversion markers of a profile and an application.
// When Employee is set, the engine inserts it in the same atomic unit.
type ConversionCommit struct {
	Candidate   CandidateWrite
	Application ApplicationWrite
	Employee    *types.Employee
}

// Store is the persistence contract for profiles, applications, their sub-records and
// the audit trail. Getters return nil, nil when the record does not exist.
//
// Every write that carries an audit entry must persist the entry and the record in one
// atomic unit, entry first, assigning the entry's per-entity Seq. Uniqueness violations
// surface as the typed errors of this package; version mismatches as *ErrConflict.
//
// An application written with a zero Sequence is appended to its stage: the engine assigns
// the stage's highest sequence plus one inside the same atomic unit and stores it back
// into the application, so concurrent writers into one stage never collide. Stages must
// belong to the application's recruitment, otherwise *ErrInvalidStage.
type Store interface {
	InsertCandidate(ctx context.Context, c *types.Candidate, entry *types.AuditEntry) error
	UpdateCandidate(ctx context.Context, w CandidateWrite) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error)
	GetCandidateByEmail(ctx context.Context, email string) (*types.Candidate, error)

	InsertApplication(ctx context.Context, w ApplicationInsert) error
	UpdateApplication(ctx context.Context, w ApplicationWrite) error
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	// ListApplications returns the non-archived applications matching every predicate.
	ListApplications(ctx context.Context, preds []query.Predicate) ([]*types.Application, error)
	ListApplicationsByEmail(ctx context.Context, email string) ([]*types.Application, error)
	// ResequenceStage assigns sequences 1..n in the given order. The ids must be exactly the
	// stage's current non-archived members, otherwise *ErrConflict.
	ResequenceStage(ctx context.Context, recruitmentID, stageID uuid.UUID, orderedIDs []uuid.UUID) error

	AuditPage(ctx context.Context, entityType types.EntityType, entityID uuid.UUID, afterSeq int64, limit int) ([]types.AuditEntry, error)

	CommitConversion(ctx context.Context, c ConversionCommit) error

	// InsertInterview and UpdateInterview apply the optional application write atomically.
	InsertInterview(ctx context.Context, iv *types.Interview, app *ApplicationWrite) error
	UpdateInterview(ctx context.Context, iv *types.Interview, app *ApplicationWrite) error
	GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error)
	ListInterviews(ctx context.Context, applicationID uuid.UUID) ([]*types.Interview, error)

	InsertNote(ctx context.Context, n *types.StageNote) error
	GetNote(ctx context.Context, id uuid.UUID) (*types.StageNote, error)
	ListNotes(ctx context.Context, applicationID uuid.UUID) ([]*types.StageNote, error)
	SoftDeleteNote(ctx context.Context, id uuid.UUID) error

	InsertSurveyQuestion(ctx context.Context, q *types.SurveyQuestion) error
	GetSurveyQuestion(ctx context.Context, id uuid.UUID) (*types.SurveyQuestion, error)
	ListSurveyQuestions(ctx context.Context, recruitmentID uuid.UUID) ([]*types.SurveyQuestion, error)
	InsertSurveyAnswer(ctx context.Context, a *types.SurveyAnswer) error
	ListSurveyAnswers(ctx context.Context, applicationID uuid.UUID) ([]*types.SurveyAnswer, error)
}

// StageProvider supplies the ordered stage list of a recruitment.
type StageProvider interface {
	StagesFor(ctx context.Context, recruitmentID uuid.UUID) ([]types.Stage, error)
}

// RecruitmentStore persists recruitments together with their stages.
type RecruitmentStore interface {
	InsertRecruitment(ctx context.Context, r *types.Recruitment, stages []types.Stage) error
	GetRecruitment(ctx context.Context, id uuid.UUID) (*types.Recruitment, error)
	ListRecruitments(ctx context.Context) ([]*types.Recruitment, error)
}

// EmployeeStore is an external employee registry. When configured, conversion creates the
// employee there first and compensates with DeleteEmployee if the marker commit fails.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e *types.Employee) (uuid.UUID, error)
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
}

// Notifier receives stage change notices after commit. It must not block.
type Notifier interface {
	StageChanged(n types.StageNotice)
}
