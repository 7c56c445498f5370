// Package recruitment implements the candidate profile and application core: the
// application store contract, the stage pipeline, conversion to employees, and the
// audit trail every mutation writes to.
package recruitment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

const defaultHistoryPageSize = 50

// Options configures a Service. Store and Stages are required.
type Options struct {
	Store        Store
	Stages       StageProvider
	Recruitments RecruitmentStore
	Employees    EmployeeStore
	Notifier     Notifier

	// ProbationDays sets probationEnd = joiningDate + ProbationDays on hire when positive.
	ProbationDays   int
	HistoryPageSize int
	StageTemplate   []types.StageTemplate
	Now             func() time.Time
}

// Service is the entry point for every recruitment operation.
type Service struct {
	store         Store
	stages        StageProvider
	recruitments  RecruitmentStore
	employees     EmployeeStore
	notifier      Notifier
	probationDays int
	pageSize      int
	now           func() time.Time

	templateMu sync.RWMutex
	template   []types.StageTemplate
}

// New creates a Service
func New(opts Options) *Service {
	s := &Service{
		store:         opts.Store,
		stages:        opts.Stages,
		recruitments:  opts.Recruitments,
		employees:     opts.Employees,
		notifier:      opts.Notifier,
		probationDays: opts.ProbationDays,
		pageSize:      opts.HistoryPageSize,
		template:      opts.StageTemplate,
		now:           opts.Now,
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultHistoryPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetStageTemplate replaces the stages used for recruitments created without explicit ones.
// Existing recruitments keep their stages.
func (s *Service) SetStageTemplate(template []types.StageTemplate) {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()
	s.template = template
}

// StageTemplate returns the current default stage template.
func (s *Service) StageTemplate() []types.StageTemplate {
	s.templateMu.RLock()
	defer s.templateMu.RUnlock()
	return s.template
}

// clock returns the current time at the precision every storage engine can hold.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// newEntry builds an audit entry from the canonical field maps before and after the write.
func (s *Service) newEntry(entity types.EntityType, id uuid.UUID, actor types.Actor, action types.AuditAction, before, after map[string]string) *types.AuditEntry {
	return &types.AuditEntry{
		ID:         uuid.New(),
		EntityType: entity,
		EntityID:   id,
		Actor:      actor.ID,
		Action:     action,
		Changes:    Diff(before, after),
		CreatedAt:  s.clock(),
	}
}

func (s *Service) loadApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, notFound("application", id)
	}
	return app, nil
}

func (s *Service) loadCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("candidate", id)
	}
	return c, nil
}

func (s *Service) stagesFor(ctx context.Context, recruitmentID uuid.UUID) ([]types.Stage, error) {
	stages, err := s.stages.StagesFor(ctx, recruitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}
	return stages, nil
}

func findStage(stages []types.Stage, id uuid.UUID) (types.Stage, bool) {
	for _, st := range stages {
		if st.ID == id {
			return st, true
		}
	}
	return types.Stage{}, false
}

func findStageByType(stages []types.Stage, t types.StageType) (types.Stage, bool) {
	for _, st := range stages {
		if st.Type == t {
			return st, true
		}
	}
	return types.Stage{}, false
}

// checkVersion rejects a caller-pinned version that no longer matches.
func checkVersion(entity string, id uuid.UUID, current, expected int) error {
	if expected != 0 && expected != current {
		return &ErrConflict{Entity: entity, ID: id, Reason: "version changed"}
	}
	return nil
}

func expectedOr(expected, current int) int {
	if expected != 0 {
		return expected
	}
	return current
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
