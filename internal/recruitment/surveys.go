package recruitment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/schemas"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// AddSurveyQuestion adds a question to a recruitment survey. A non-empty answer schema
// must be a valid JSON Schema.
func (s *Service) AddSurveyQuestion(ctx context.Context, recruitmentID uuid.UUID, req types.CreateSurveyQuestionRequest) (*types.SurveyQuestion, error) {
	if err := types.Validate(req); err != nil {
		return nil, validationError(err)
	}
	if len(req.AnswerSchema) > 0 {
		if _, err := schemas.Compile(req.AnswerSchema); err != nil {
			return nil, &ErrValidation{Field: "answer_schema", Message: err.Error()}
		}
	}
	if s.recruitments != nil {
		r, err := s.recruitments.GetRecruitment(ctx, recruitmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get recruitment: %w", err)
		}
		if r == nil {
			return nil, notFound("recruitment", recruitmentID)
		}
	}
	existing, err := s.store.ListSurveyQuestions(ctx, recruitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list survey questions: %w", err)
	}

	q := &types.SurveyQuestion{
		ID:            uuid.New(),
		RecruitmentID: recruitmentID,
		Question:      req.Question,
		Mandatory:     req.Mandatory,
		AnswerSchema:  req.AnswerSchema,
		Position:      len(existing) + 1,
	}
	if err := s.store.InsertSurveyQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListSurveyQuestions returns a recruitment's questions ordered by position.
func (s *Service) ListSurveyQuestions(ctx context.Context, recruitmentID uuid.UUID) ([]*types.SurveyQuestion, error) {
	return s.store.ListSurveyQuestions(ctx, recruitmentID)
}

// SubmitSurveyAnswer stores the answer to one question for one application. Answers are
// immutable: a second answer to the same question fails with ErrDuplicateAnswer.
func (s *Service) SubmitSurveyAnswer(ctx context.Context, applicationID uuid.UUID, req types.SurveyAnswerRequest) (*types.SurveyAnswer, error) {
	if err := types.Validate(req); err != nil {
		return nil, validationError(err)
	}
	if !json.Valid(req.Answer) {
		return nil, &ErrValidation{Field: "answer", Message: "answer is not valid JSON"}
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	q, err := s.store.GetSurveyQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, notFound("survey question", req.QuestionID)
	}
	if q.RecruitmentID != app.RecruitmentID {
		return nil, &ErrValidation{Field: "question_id", Message: "question belongs to another recruitment"}
	}
	if err := checkAnswer(q, req.Answer); err != nil {
		return nil, err
	}

	a := &types.SurveyAnswer{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		QuestionID:    q.ID,
		RecruitmentID: app.RecruitmentID,
		Answer:        req.Answer,
		AttachmentRef: req.AttachmentRef,
		SubmittedAt:   s.clock(),
	}
	if err := s.store.InsertSurveyAnswer(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListSurveyAnswers returns the answers submitted for an application.
func (s *Service) ListSurveyAnswers(ctx context.Context, applicationID uuid.UUID) ([]*types.SurveyAnswer, error) {
	if _, err := s.loadApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.store.ListSurveyAnswers(ctx, applicationID)
}

func checkAnswer(q *types.SurveyQuestion, answer json.RawMessage) error {
	if q.Mandatory && isBlank(answer) {
		return &ErrValidation{Field: "answer", Message: "question is mandatory"}
	}
	if len(q.AnswerSchema) == 0 {
		return nil
	}
	err := schemas.ValidateBytes(q.AnswerSchema, answer)
	var invalid *schemas.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &invalid):
		return &ErrValidation{Field: "answer", Message: invalid.Error()}
	default:
		return fmt.Errorf("failed to validate answer: %w", err)
	}
}

func isBlank(answer json.RawMessage) bool {
	switch strings.TrimSpace(string(answer)) {
	case "", "null", `""`, "[]", "{}":
		return true
	default:
		return false
	}
}
