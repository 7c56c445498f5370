package recruitment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// MoveStageInput moves an application to another stage of its recruitment.
// ExpectedVersion pins the version the caller read; zero means the current one.
type MoveStageInput struct {
	ApplicationID   uuid.UUID
	TargetStageID   uuid.UUID
	Actor           types.Actor
	ExpectedVersion int
}

// MarkHiredInput marks an application hired.
type MarkHiredInput struct {
	ApplicationID   uuid.UUID
	JoiningDate     time.Time
	Actor           types.Actor
	ExpectedVersion int
}

// MarkCanceledInput marks an application canceled.
type MarkCanceledInput struct {
	ApplicationID   uuid.UUID
	Reason          string
	Actor           types.Actor
	ExpectedVersion int
}

// transition loads an application for a pipeline operation and rejects terminal,
// archived or stale targets.
func (s *Service) transition(ctx context.Context, id uuid.UUID, expected int, op string) (*types.Application, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion("application", app.ID, app.Version, expected); err != nil {
		return nil, err
	}
	if app.Terminal() {
		return nil, &ErrTerminalState{ApplicationID: app.ID, Op: op}
	}
	if app.Archived {
		return nil, &ErrInvalidTransition{ApplicationID: app.ID, Reason: "application is archived"}
	}
	return app, nil
}

// MoveStage moves an application to the end of the target stage. Backward moves are
// allowed; moving to the current stage re-appends it. The stage's managers are notified
// after commit.
func (s *Service) MoveStage(ctx context.Context, in MoveStageInput) (*types.Application, error) {
	app, err := s.transition(ctx, in.ApplicationID, in.ExpectedVersion, "move")
	if err != nil {
		return nil, err
	}
	stages, err := s.stagesFor(ctx, app.RecruitmentID)
	if err != nil {
		return nil, err
	}
	target, ok := findStage(stages, in.TargetStageID)
	if !ok {
		return nil, &ErrInvalidStage{StageID: in.TargetStageID, RecruitmentID: app.RecruitmentID}
	}

	next := *app
	next.StartOnboard = false
	placeInStage(&next, target.ID)

	from := app.StageID
	updated, err := s.commitApplication(ctx, in.Actor, app, &next, types.ActionStageChange, in.ExpectedVersion, stageChange(from, target.ID))
	if err != nil {
		return nil, err
	}
	s.notifyStageChange(updated, from, target, in.Actor)
	return updated, nil
}

// MarkHired sets the hire outcome and moves the application to the recruitment's
// selected stage when it has one.
func (s *Service) MarkHired(ctx context.Context, in MarkHiredInput) (*types.Application, error) {
	app, err := s.transition(ctx, in.ApplicationID, in.ExpectedVersion, "hire")
	if err != nil {
		return nil, err
	}
	if in.JoiningDate.IsZero() {
		return nil, &ErrInvalidTransition{ApplicationID: app.ID, Reason: "joining date is required to hire"}
	}

	now := s.clock()
	joining := in.JoiningDate.UTC()
	next := *app
	next.Hired = true
	next.HiredDate = &now
	next.JoiningDate = &joining
	if s.probationDays > 0 {
		end := joining.AddDate(0, 0, s.probationDays)
		next.ProbationEnd = &end
	}
	return s.finish(ctx, in.Actor, app, &next, types.ActionHire, types.StageSelected, in.ExpectedVersion, "")
}

// MarkCanceled sets the cancel outcome and moves the application to the recruitment's
// cancelled stage when it has one.
func (s *Service) MarkCanceled(ctx context.Context, in MarkCanceledInput) (*types.Application, error) {
	app, err := s.transition(ctx, in.ApplicationID, in.ExpectedVersion, "cancel")
	if err != nil {
		return nil, err
	}
	next := *app
	next.Canceled = true
	next.CancelReason = in.Reason
	return s.finish(ctx, in.Actor, app, &next, types.ActionCancel, types.StageCancelled, in.ExpectedVersion, in.Reason)
}

// finish commits a terminal outcome, moving into the first stage of the given type if any.
func (s *Service) finish(ctx context.Context, actor types.Actor, app, next *types.Application, action types.AuditAction, stageType types.StageType, expected int, reason string) (*types.Application, error) {
	stages, err := s.stagesFor(ctx, app.RecruitmentID)
	if err != nil {
		return nil, err
	}
	target, moved := findStageByType(stages, stageType)
	moved = moved && target.ID != app.StageID
	if moved {
		placeInStage(next, target.ID)
	}

	decorate := func(e *types.AuditEntry) {
		e.Reason = reason
		if moved {
			stageChange(app.StageID, target.ID)(e)
		}
	}
	updated, err := s.commitApplication(ctx, actor, app, next, action, expected, decorate)
	if err != nil {
		return nil, err
	}
	if moved {
		s.notifyStageChange(updated, app.StageID, target, actor)
	}
	return updated, nil
}

// StartOnboarding flags a non-terminal application as onboarding.
func (s *Service) StartOnboarding(ctx context.Context, actor types.Actor, id uuid.UUID) (*types.Application, error) {
	app, err := s.transition(ctx, id, 0, "onboard")
	if err != nil {
		return nil, err
	}
	next := *app
	next.StartOnboard = true
	return s.commitApplication(ctx, actor, app, &next, types.ActionOnboard, 0, nil)
}

// SetOfferLetterStatus records the offer letter state. Hired applications keep tracking
// their offer; canceled ones are closed.
func (s *Service) SetOfferLetterStatus(ctx context.Context, actor types.Actor, id uuid.UUID, status types.OfferLetterStatus) (*types.Application, error) {
	if !status.Valid() {
		return nil, &ErrValidation{Field: "status", Message: fmt.Sprintf("unknown offer letter status %q", status)}
	}
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Canceled {
		return nil, &ErrInvalidTransition{ApplicationID: app.ID, Reason: "application is canceled"}
	}
	next := *app
	next.OfferLetterStatus = status
	return s.commitApplication(ctx, actor, app, &next, types.ActionOfferStatus, 0, nil)
}

// ReorderStage sets the manual order of a stage's applications. The ids must be exactly
// the stage's current members. Stage membership never changes and nothing is audited.
func (s *Service) ReorderStage(ctx context.Context, recruitmentID, stageID uuid.UUID, orderedIDs []uuid.UUID) error {
	stages, err := s.stagesFor(ctx, recruitmentID)
	if err != nil {
		return err
	}
	if _, ok := findStage(stages, stageID); !ok {
		return &ErrInvalidStage{StageID: stageID, RecruitmentID: recruitmentID}
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return &ErrValidation{Field: "application_ids", Message: fmt.Sprintf("duplicate id %s", id)}
		}
		seen[id] = struct{}{}
	}
	return s.store.ResequenceStage(ctx, recruitmentID, stageID, orderedIDs)
}

// placeInStage moves next into the stage. The zero sequence asks the store to append it.
func placeInStage(next *types.Application, stageID uuid.UUID) {
	next.StageID = stageID
	next.Sequence = 0
}

func stageChange(from, to uuid.UUID) func(*types.AuditEntry) {
	return func(e *types.AuditEntry) {
		e.FromStageID = &from
		e.ToStageID = &to
	}
}

// notifyStageChange hands a notice to the notifier. Delivery is best-effort and never
// affects the committed move.
func (s *Service) notifyStageChange(app *types.Application, from uuid.UUID, to types.Stage, actor types.Actor) {
	if s.notifier == nil {
		return
	}
	if len(to.ManagerIDs) == 0 {
		log.Printf("[pipeline] stage %s has no managers, skipping notice for application %s", to.ID, app.ID)
		return
	}
	s.notifier.StageChanged(types.StageNotice{
		ManagerIDs:    to.ManagerIDs,
		ApplicationID: app.ID,
		RecruitmentID: app.RecruitmentID,
		Name:          app.Name,
		Email:         app.Email,
		FromStageID:   from,
		ToStageID:     to.ID,
		ToStageName:   to.Name,
		Actor:         actor.ID,
		At:            app.UpdatedAt,
	})
}
