package db

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
)

// Postgres error codes the engine translates.
const (
	codeUniqueViolation    = "23505"
	codeForeignKey         = "23503"
	codeExclusionViolation = "23P01"
	codeSerialization      = "40001"
	codeDeadlock           = "40P01"
)

// violation identifies the row a statement was writing, to fill the typed error.
type violation struct {
	entity        string
	id            uuid.UUID
	email         string
	recruitmentID uuid.UUID
	stageID       uuid.UUID
	questionID    uuid.UUID
	applicationID uuid.UUID
}

// translate maps a Postgres error to the recruitment error it stands for.
// Other errors pass through unchanged.
func translate(err error) error {
	return translateFor(err, violation{})
}

func translateFor(err error, v violation) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case "candidates_email_key":
			return &recruitment.ErrDuplicateProfile{Email: v.email}
		case "applications_open_email_key":
			return &recruitment.ErrDuplicateApplication{Email: v.email, RecruitmentID: v.recruitmentID}
		case "survey_answers_question_application_key":
			return &recruitment.ErrDuplicateAnswer{QuestionID: v.questionID, ApplicationID: v.applicationID}
		case "audit_entries_entity_seq_key":
			return &recruitment.ErrConflict{Entity: v.entity, ID: v.id, Reason: "concurrent write to the audit trail"}
		case "employees_source_application_key":
			return &recruitment.ErrConflict{Entity: "employee", ID: v.id, Reason: "application already converted"}
		}
	case codeForeignKey:
		if pgErr.ConstraintName == "applications_stage_recruitment_fkey" {
			return &recruitment.ErrInvalidStage{StageID: v.stageID, RecruitmentID: v.recruitmentID}
		}
	case codeExclusionViolation:
		if pgErr.ConstraintName == "applications_stage_sequence_excl" {
			return &recruitment.ErrConflict{Entity: "application", ID: v.id, Reason: "sequence is taken in the stage"}
		}
	case codeSerialization, codeDeadlock:
		return &recruitment.ErrConflict{Entity: v.entity, ID: v.id, Reason: "concurrent update"}
	}
	return err
}
