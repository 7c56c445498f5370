package recruitment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/query"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Apply is the profile-first flow: the profile is found or created by email, then an
// application snapshotting it is created for the recruitment. A new profile is stored in
// the same atomic unit as the application, so a rejected application creates nothing.
func (s *Service) Apply(ctx context.Context, actor types.Actor, req types.ApplyRequest) (*types.Application, error) {
	if err := types.Validate(req); err != nil {
		return nil, validationError(err)
	}
	email := normalizeEmail(req.Email)

	// A concurrent Apply for the same person may create the profile between the lookup and
	// the insert. The second pass snapshots the profile that won.
	for attempt := 0; ; attempt++ {
		profile, err := s.store.GetCandidateByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up profile: %w", err)
		}
		app, err := s.prepareApplication(ctx, req, profile)
		if err != nil {
			return nil, err
		}
		w := ApplicationInsert{App: app}
		if profile == nil {
			w.Profile, w.ProfileEntry, err = s.newProfile(actor, types.CreateProfileRequest{Email: email, Details: app.PersonalDetails})
			if err != nil {
				return nil, err
			}
		}
		created, err := s.insertApplication(ctx, actor, w)
		var dup *ErrDuplicateProfile
		if w.Profile != nil && attempt == 0 && errors.As(err, &dup) {
			continue
		}
		return created, err
	}
}

// CreateApplication adds an application for a recruitment. When a profile with the email
// exists its details are snapshotted, with the request details taking precedence.
func (s *Service) CreateApplication(ctx context.Context, actor types.Actor, req types.ApplyRequest) (*types.Application, error) {
	if err := types.Validate(req); err != nil {
		return nil, validationError(err)
	}
	profile, err := s.store.GetCandidateByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	app, err := s.prepareApplication(ctx, req, profile)
	if err != nil {
		return nil, err
	}
	return s.insertApplication(ctx, actor, ApplicationInsert{App: app})
}

// prepareApplication checks every precondition of a new application and builds it for
// its initial stage. The store appends it to the end of that stage.
func (s *Service) prepareApplication(ctx context.Context, req types.ApplyRequest, profile *types.Candidate) (*types.Application, error) {
	email := normalizeEmail(req.Email)

	staffing, err := req.Staffing.Build()
	if err != nil {
		return nil, &ErrValidation{Field: "staffing", Message: err.Error()}
	}

	details := types.PersonalDetails{}
	if profile != nil {
		details = profile.PersonalDetails
	}
	if req.Details != nil {
		details = *req.Details
	}
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	jobPosition := req.JobPositionID
	if s.recruitments != nil {
		r, err := s.recruitments.GetRecruitment(ctx, req.RecruitmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get recruitment: %w", err)
		}
		if r == nil {
			return nil, notFound("recruitment", req.RecruitmentID)
		}
		if jobPosition == nil {
			jobPosition = r.JobPositionID
		}
	}

	stages, err := s.stagesFor(ctx, req.RecruitmentID)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, &ErrInvalidStage{RecruitmentID: req.RecruitmentID}
	}
	stage := stages[0]
	if req.StageID != nil {
		var ok bool
		if stage, ok = findStage(stages, *req.StageID); !ok {
			return nil, &ErrInvalidStage{StageID: *req.StageID, RecruitmentID: req.RecruitmentID}
		}
	}

	existing, err := s.store.ListApplicationsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	for _, app := range existing {
		if app.RecruitmentID == req.RecruitmentID && !app.Archived {
			return nil, &ErrDuplicateApplication{Email: email, RecruitmentID: req.RecruitmentID}
		}
	}

	now := s.clock()
	app := &types.Application{
		ID:                uuid.New(),
		RecruitmentID:     req.RecruitmentID,
		Email:             email,
		PersonalDetails:   details,
		JobPositionID:     jobPosition,
		Staffing:          staffing,
		StageID:           stage.ID,
		OfferLetterStatus: types.OfferNotSent,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return app, nil
}

func (s *Service) insertApplication(ctx context.Context, actor types.Actor, w ApplicationInsert) (*types.Application, error) {
	app := w.App
	w.Entry = s.newEntry(types.EntityApplication, app.ID, actor, types.ActionCreate, nil, SnapshotApplication(app))
	w.Entry.ToStageID = &app.StageID
	if err := s.store.InsertApplication(ctx, w); err != nil {
		return nil, err
	}
	return app, nil
}

// GetApplication returns an application by id.
func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	return s.loadApplication(ctx, id)
}

// ListApplications returns the non-archived applications matching the filter options.
func (s *Service) ListApplications(ctx context.Context, opts query.Options) ([]*types.Application, error) {
	apps, err := s.store.ListApplications(ctx, query.Build(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListApplicationsByEmail returns every application of a person, archived ones included.
func (s *Service) ListApplicationsByEmail(ctx context.Context, email string) ([]*types.Application, error) {
	apps, err := s.store.ListApplicationsByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// UpdateApplication patches the snapshot of an application. Its email and recruitment
// are its identity and cannot change; stage and outcome flags go through the pipeline.
func (s *Service) UpdateApplication(ctx context.Context, actor types.Actor, id uuid.UUID, patch types.ApplicationPatch) (*types.Application, error) {
	if err := types.Validate(patch); err != nil {
		return nil, validationError(err)
	}
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil && normalizeEmail(*patch.Email) != app.Email {
		return nil, &ErrValidation{Field: "email", Message: "application email cannot be changed"}
	}
	if patch.RecruitmentID != nil && *patch.RecruitmentID != app.RecruitmentID {
		return nil, &ErrValidation{Field: "recruitment_id", Message: "application recruitment cannot be changed"}
	}

	next := *app
	applyDetails(&next.PersonalDetails, patch.Details)
	if err := validateDetails(next.PersonalDetails); err != nil {
		return nil, err
	}
	if patch.JobPositionID != nil {
		jp := *patch.JobPositionID
		next.JobPositionID = &jp
	}
	if patch.Staffing != nil {
		staffing, err := patch.Staffing.Build()
		if err != nil {
			return nil, &ErrValidation{Field: "staffing", Message: err.Error()}
		}
		next.Staffing = staffing
	}
	return s.commitApplication(ctx, actor, app, &next, types.ActionUpdate, 0, nil)
}

// ArchiveApplication soft-deletes an application, freeing its (email, recruitment) slot.
func (s *Service) ArchiveApplication(ctx context.Context, actor types.Actor, id uuid.UUID) (*types.Application, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *app
	next.Archived = true
	return s.commitApplication(ctx, actor, app, &next, types.ActionArchive, 0, nil)
}

// commitApplication writes next over prev with one audit entry, checked against the
// expected version (or prev's version when zero). Writes that change no audited field and
// carry no stage change are no-ops. decorate may annotate the entry before commit.
func (s *Service) commitApplication(ctx context.Context, actor types.Actor, prev, next *types.Application, action types.AuditAction, expected int, decorate func(*types.AuditEntry)) (*types.Application, error) {
	entry := s.newEntry(types.EntityApplication, prev.ID, actor, action, SnapshotApplication(prev), SnapshotApplication(next))
	if decorate != nil {
		decorate(entry)
	}
	if len(entry.Changes) == 0 && entry.ToStageID == nil && next.Sequence == prev.Sequence {
		return prev, nil
	}
	next.Version = prev.Version + 1
	next.UpdatedAt = entry.CreatedAt
	w := ApplicationWrite{App: next, ExpectedVersion: expectedOr(expected, prev.Version), Entry: entry}
	if err := s.store.UpdateApplication(ctx, w); err != nil {
		return nil, err
	}
	return next, nil
}
