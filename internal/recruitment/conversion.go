package recruitment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Convert turns a hired application into an employee. It fails loudly with
// ErrAlreadyConverted when the profile or application was converted before, so a
// repeated call never creates a second employee. The employee and both conversion
// markers are persisted together or not at all.
func (s *Service) Convert(ctx context.Context, actor types.Actor, applicationID uuid.UUID) (*types.Employee, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ConvertedEmployeeID != nil {
		return nil, &ErrAlreadyConverted{Email: app.Email, EmployeeID: *app.ConvertedEmployeeID}
	}
	if !app.Hired {
		return nil, &ErrInvalidTransition{ApplicationID: app.ID, Reason: "only hired applications can be converted"}
	}
	profile, err := s.store.GetCandidateByEmail(ctx, app.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if profile == nil {
		return nil, &ErrNotFound{Entity: "candidate", ID: app.Email}
	}
	if profile.Converted {
		var empID uuid.UUID
		if profile.ConvertedEmployeeID != nil {
			empID = *profile.ConvertedEmployeeID
		}
		return nil, &ErrAlreadyConverted{Email: profile.Email, EmployeeID: empID}
	}

	emp := buildEmployee(profile, app, s.clock())

	if s.employees == nil {
		if err := s.store.CommitConversion(ctx, s.conversionCommit(actor, profile, app, emp, true)); err != nil {
			return nil, err
		}
		return emp, nil
	}

	id, err := s.employees.CreateEmployee(ctx, emp)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	emp.ID = id
	if err := s.store.CommitConversion(ctx, s.conversionCommit(actor, profile, app, emp, false)); err != nil {
		if derr := s.employees.DeleteEmployee(ctx, id); derr != nil {
			log.Printf("[conversion] failed to remove employee %s after aborted conversion of %s: %v", id, app.ID, derr)
			return nil, fmt.Errorf("conversion of %s aborted (%w) and employee %s could not be removed: %v", app.ID, err, id, derr)
		}
		return nil, err
	}
	return emp, nil
}

func (s *Service) conversionCommit(actor types.Actor, profile *types.Candidate, app *types.Application, emp *types.Employee, withEmployee bool) ConversionCommit {
	empID := emp.ID

	nextProfile := *profile
	nextProfile.Converted = true
	nextProfile.ConvertedEmployeeID = &empID
	nextProfile.Version = profile.Version + 1
	profileEntry := s.newEntry(types.EntityCandidate, profile.ID, actor, types.ActionConvert, SnapshotCandidate(profile), SnapshotCandidate(&nextProfile))
	nextProfile.UpdatedAt = profileEntry.CreatedAt

	nextApp := *app
	nextApp.ConvertedEmployeeID = &empID
	nextApp.Version = app.Version + 1
	appEntry := s.newEntry(types.EntityApplication, app.ID, actor, types.ActionConvert, SnapshotApplication(app), SnapshotApplication(&nextApp))
	nextApp.UpdatedAt = appEntry.CreatedAt

	c := ConversionCommit{
		Candidate:   CandidateWrite{Candidate: &nextProfile, ExpectedVersion: profile.Version, Entry: profileEntry},
		Application: ApplicationWrite{App: &nextApp, ExpectedVersion: app.Version, Entry: appEntry},
	}
	if withEmployee {
		c.Employee = emp
	}
	return c
}

// buildEmployee copies the profile's personal details and the application's job and
// staffing terms.
func buildEmployee(profile *types.Candidate, app *types.Application, now time.Time) *types.Employee {
	return &types.Employee{
		ID:                  uuid.New(),
		Email:               profile.Email,
		PersonalDetails:     profile.PersonalDetails,
		JobPositionID:       app.JobPositionID,
		RecruitmentID:       app.RecruitmentID,
		Staffing:            types.OrInternal(app.Staffing),
		JoiningDate:         app.JoiningDate,
		ProbationEnd:        app.ProbationEnd,
		SourceApplicationID: app.ID,
		CreatedAt:           now,
	}
}
