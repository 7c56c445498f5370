package recruitment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

var errNoRecruitmentStore = errors.New("recruitment store is not configured")

// CreateRecruitment opens a recruitment with its stage pipeline. Without explicit stages
// the configured template is used. Recruitment managers manage every initial stage.
func (s *Service) CreateRecruitment(ctx context.Context, req types.CreateRecruitmentRequest) (*types.Recruitment, []types.Stage, error) {
	if s.recruitments == nil {
		return nil, nil, errNoRecruitmentStore
	}
	if err := types.Validate(req); err != nil {
		return nil, nil, validationError(err)
	}
	templates := req.Stages
	if len(templates) == 0 {
		templates = s.StageTemplate()
	}
	if len(templates) == 0 {
		return nil, nil, &ErrValidation{Field: "stages", Message: "a recruitment needs at least one stage"}
	}

	for _, t := range templates {
		if !t.Type.Valid() {
			return nil, nil, &ErrValidation{Field: "stages.type", Message: fmt.Sprintf("unknown stage type %q", t.Type)}
		}
	}

	r := &types.Recruitment{
		ID:            uuid.New(),
		Title:         req.Title,
		CompanyID:     req.CompanyID,
		JobPositionID: req.JobPositionID,
		ManagerIDs:    req.ManagerIDs,
		CreatedAt:     s.clock(),
	}
	stages := make([]types.Stage, len(templates))
	for i, t := range templates {
		stages[i] = types.Stage{
			ID:            uuid.New(),
			RecruitmentID: r.ID,
			Name:          t.Name,
			Type:          t.Type,
			Position:      i + 1,
			ManagerIDs:    req.ManagerIDs,
		}
	}
	if err := s.recruitments.InsertRecruitment(ctx, r, stages); err != nil {
		return nil, nil, fmt.Errorf("failed to create recruitment: %w", err)
	}
	return r, stages, nil
}

// GetRecruitment returns a recruitment and its ordered stages.
func (s *Service) GetRecruitment(ctx context.Context, id uuid.UUID) (*types.Recruitment, []types.Stage, error) {
	if s.recruitments == nil {
		return nil, nil, errNoRecruitmentStore
	}
	r, err := s.recruitments.GetRecruitment(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get recruitment: %w", err)
	}
	if r == nil {
		return nil, nil, notFound("recruitment", id)
	}
	stages, err := s.stagesFor(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return r, stages, nil
}

// ListRecruitments returns every recruitment, newest first.
func (s *Service) ListRecruitments(ctx context.Context) ([]*types.Recruitment, error) {
	if s.recruitments == nil {
		return nil, errNoRecruitmentStore
	}
	return s.recruitments.ListRecruitments(ctx)
}
