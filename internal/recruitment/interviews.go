package recruitment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// ScheduleInterview adds an interview and points the application's schedule date at its
// earliest incomplete interview.
func (s *Service) ScheduleInterview(ctx context.Context, actor types.Actor, applicationID uuid.UUID, req types.ScheduleInterviewRequest) (*types.Interview, error) {
	if err := types.Validate(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.transition(ctx, applicationID, 0, "schedule an interview for")
	if err != nil {
		return nil, err
	}

	iv := &types.Interview{
		ID:             uuid.New(),
		ApplicationID:  app.ID,
		ScheduledAt:    req.ScheduledAt.UTC().Truncate(time.Microsecond),
		InterviewerIDs: req.InterviewerIDs,
		Description:    req.Description,
		CreatedAt:      s.clock(),
	}
	existing, err := s.store.ListInterviews(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	w := s.scheduleWrite(actor, app, append(existing, iv))
	if err := s.store.InsertInterview(ctx, iv, w); err != nil {
		return nil, err
	}
	return iv, nil
}

// CompleteInterview marks an interview done and moves the schedule date to the next
// incomplete interview.
func (s *Service) CompleteInterview(ctx context.Context, actor types.Actor, interviewID uuid.UUID) (*types.Interview, error) {
	iv, err := s.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if iv == nil {
		return nil, notFound("interview", interviewID)
	}
	if iv.Completed {
		return iv, nil
	}
	app, err := s.loadApplication(ctx, iv.ApplicationID)
	if err != nil {
		return nil, err
	}

	done := *iv
	done.Completed = true
	all, err := s.store.ListInterviews(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	for i, other := range all {
		if other.ID == done.ID {
			all[i] = &done
		}
	}
	if err := s.store.UpdateInterview(ctx, &done, s.scheduleWrite(actor, app, all)); err != nil {
		return nil, err
	}
	return &done, nil
}

// ListInterviews returns the interviews of an application ordered by time.
func (s *Service) ListInterviews(ctx context.Context, applicationID uuid.UUID) ([]*types.Interview, error) {
	if _, err := s.loadApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	return s.store.ListInterviews(ctx, applicationID)
}

// scheduleWrite returns the application write that realigns its schedule date with the
// interviews, or nil when it is already aligned.
func (s *Service) scheduleWrite(actor types.Actor, app *types.Application, interviews []*types.Interview) *ApplicationWrite {
	var earliest *time.Time
	for _, iv := range interviews {
		if iv.Completed {
			continue
		}
		if earliest == nil || iv.ScheduledAt.Before(*earliest) {
			at := iv.ScheduledAt
			earliest = &at
		}
	}
	if fmtTime(earliest) == fmtTime(app.ScheduleDate) {
		return nil
	}

	next := *app
	next.ScheduleDate = earliest
	next.Version = app.Version + 1
	entry := s.newEntry(types.EntityApplication, app.ID, actor, types.ActionSchedule, SnapshotApplication(app), SnapshotApplication(&next))
	next.UpdatedAt = entry.CreatedAt
	return &ApplicationWrite{App: &next, ExpectedVersion: app.Version, Entry: entry}
}
