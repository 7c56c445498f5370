package recruitment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/memstore"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hiredApplication(t *testing.T, f *fixture, staffing types.StaffingInput) *types.Application {
	t.Helper()
	r, _ := f.newRecruitment(t, "Backend Engineer")
	app, err := f.svc.Apply(f.ctx, f.actor, types.ApplyRequest{
		Email:         "jane@x.com",
		RecruitmentID: r.ID,
		Details:       &types.PersonalDetails{Name: "Jane Doe", Mobile: "+351900000000", Gender: types.GenderFemale},
		Staffing:      staffing,
	})
	require.NoError(t, err)
	hired, err := f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, JoiningDate: date(2024, 6, 1), Actor: f.actor})
	require.NoError(t, err)
	return hired
}

func TestConvert(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	agency := uuid.New()
	start := date(2024, 6, 1)
	billing := int64(15000)
	app := hiredApplication(t, f, types.StaffingInput{
		Mode:             types.ModeAgencyStaffing,
		ClientCompanyID:  &client,
		StaffingAgencyID: &agency,
		BillingRateCents: &billing,
		ContractStart:    &start,
	})

	emp, err := f.svc.Convert(f.ctx, f.actor, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", emp.Email)
	assert.Equal(t, "Jane Doe", emp.Name)
	assert.Equal(t, app.ID, emp.SourceApplicationID)
	assert.Equal(t, app.JoiningDate, emp.JoiningDate)
	staffing, ok := emp.Staffing.(types.AgencyStaffing)
	require.True(t, ok)
	assert.Equal(t, agency, staffing.StaffingAgencyID)
	assert.Equal(t, int64(15000), staffing.BillingRateCents)

	profile, err := f.svc.GetProfileByEmail(f.ctx, "jane@x.com")
	require.NoError(t, err)
	assert.True(t, profile.Converted)
	require.NotNil(t, profile.ConvertedEmployeeID)
	assert.Equal(t, emp.ID, *profile.ConvertedEmployeeID)

	converted, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, converted.ConvertedEmployeeID)
	assert.Equal(t, emp.ID, *converted.ConvertedEmployeeID)

	stored, err := f.store.GetEmployee(f.ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestConvert_Twice(t *testing.T) {
	f := newFixture(t)
	app := hiredApplication(t, f, types.StaffingInput{})

	_, err := f.svc.Convert(f.ctx, f.actor, app.ID)
	require.NoError(t, err)

	_, err = f.svc.Convert(f.ctx, f.actor, app.ID)
	var already *recruitment.ErrAlreadyConverted
	require.True(t, errors.As(err, &already))

	emps, err := f.store.ListEmployees(f.ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 1)
}

func TestConvert_ProfileAlreadyConvertedThroughOtherApplication(t *testing.T) {
	f := newFixture(t)
	first := hiredApplication(t, f, types.StaffingInput{})
	_, err := f.svc.Convert(f.ctx, f.actor, first.ID)
	require.NoError(t, err)

	second := hiredApplication(t, f, types.StaffingInput{})
	_, err = f.svc.Convert(f.ctx, f.actor, second.ID)
	assert.IsType(t, &recruitment.ErrAlreadyConverted{}, err)
}

func TestConvert_RequiresHired(t *testing.T) {
	f := newFixture(t)
	r, _ := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	_, err := f.svc.Convert(f.ctx, f.actor, app.ID)
	assert.IsType(t, &recruitment.ErrInvalidTransition{}, err)
}

func TestConvert_RequiresProfile(t *testing.T) {
	f := newFixture(t)
	r, _ := f.newRecruitment(t, "Backend Engineer")
	app, err := f.svc.CreateApplication(f.ctx, f.actor, types.ApplyRequest{Email: "walk-in@x.com", RecruitmentID: r.ID})
	require.NoError(t, err)
	_, err = f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, JoiningDate: date(2024, 6, 1), Actor: f.actor})
	require.NoError(t, err)

	_, err = f.svc.Convert(f.ctx, f.actor, app.ID)
	assert.IsType(t, &recruitment.ErrNotFound{}, err)
}

// failingCommitStore rejects conversion commits.
type failingCommitStore struct {
	*memstore.Store
}

func (s failingCommitStore) CommitConversion(context.Context, recruitment.ConversionCommit) error {
	return &recruitment.ErrConflict{Entity: "candidate", Reason: "injected failure"}
}

// employeeRegistry is an external employee store that records deletions.
type employeeRegistry struct {
	created map[uuid.UUID]*types.Employee
	deleted []uuid.UUID
}

func (r *employeeRegistry) CreateEmployee(_ context.Context, e *types.Employee) (uuid.UUID, error) {
	id := uuid.New()
	r.created[id] = e
	return id, nil
}

func (r *employeeRegistry) DeleteEmployee(_ context.Context, id uuid.UUID) error {
	delete(r.created, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func TestConvert_ExternalEmployeeStore(t *testing.T) {
	registry := &employeeRegistry{created: map[uuid.UUID]*types.Employee{}}
	f := newFixture(t, func(o *recruitment.Options) { o.Employees = registry })
	app := hiredApplication(t, f, types.StaffingInput{})

	emp, err := f.svc.Convert(f.ctx, f.actor, app.ID)
	require.NoError(t, err)
	assert.Contains(t, registry.created, emp.ID)
	assert.Empty(t, registry.deleted)

	profile, err := f.svc.GetProfileByEmail(f.ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, *profile.ConvertedEmployeeID)
}

func TestConvert_CompensatesWhenMarkersFail(t *testing.T) {
	registry := &employeeRegistry{created: map[uuid.UUID]*types.Employee{}}
	var base *memstore.Store
	f := newFixture(t, func(o *recruitment.Options) {
		base = o.Store.(*memstore.Store)
		o.Store = failingCommitStore{Store: base}
		o.Employees = registry
	})
	app := hiredApplication(t, f, types.StaffingInput{})

	_, err := f.svc.Convert(f.ctx, f.actor, app.ID)
	assert.IsType(t, &recruitment.ErrConflict{}, err)
	assert.Empty(t, registry.created, "employee removed again")
	assert.Len(t, registry.deleted, 1)

	profile, err := base.GetCandidateByEmail(f.ctx, "jane@x.com")
	require.NoError(t, err)
	assert.False(t, profile.Converted)
	stored, err := base.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ConvertedEmployeeID)
}
