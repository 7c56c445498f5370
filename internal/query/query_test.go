package query

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFromValues(t *testing.T) {
	client := uuid.New()
	stage := uuid.New()

	values := url.Values{
		"employee_mode":       {"direct_staffing"},
		"client_company_id":   {client.String()},
		"stage_id":            {stage.String()},
		"contract_start_from": {"2024-01-01"},
		"hired":               {"false"},
		"source":              {"linkedin"},
		"email":               {" Jane@X.com "},
		"colour":              {"blue"},
	}

	opts, err := FromValues(values)
	require.NoError(t, err)
	assert.Equal(t, types.ModeDirectStaffing, opts.EmployeeMode)
	require.NotNil(t, opts.ClientCompanyID)
	assert.Equal(t, client, *opts.ClientCompanyID)
	require.NotNil(t, opts.StageID)
	assert.Equal(t, stage, *opts.StageID)
	require.NotNil(t, opts.ContractStartFrom)
	assert.True(t, opts.ContractStartFrom.Equal(date("2024-01-01")))
	require.NotNil(t, opts.Hired)
	assert.False(t, *opts.Hired)
	assert.Nil(t, opts.Canceled)
	assert.Equal(t, types.SourceLinkedIn, opts.Source)
	assert.Equal(t, "Jane@X.com", opts.Email)
}

func TestFromValues_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		option string
	}{
		{"bad mode", "employee_mode", "freelance", "employee_mode"},
		{"bad recruitment type", "recruitment_type", "x", "recruitment_type"},
		{"bad uuid", "staffing_agency_id", "nope", "staffing_agency_id"},
		{"bad date", "contract_end_to", "31/12/2024", "contract_end_to"},
		{"bad bool", "canceled", "maybe", "canceled"},
		{"bad source", "source", "newspaper", "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromValues(url.Values{tt.key: {tt.value}})
			require.Error(t, err)
			var qerr *Error
			require.True(t, errors.As(err, &qerr))
			assert.Equal(t, tt.option, qerr.Option)
		})
	}
}

func TestBuild_EmptyIsFullScan(t *testing.T) {
	assert.Empty(t, Build(Options{}))
	assert.True(t, Match(nil, &types.Application{}))
}

func TestBuild_RecruitmentTypeIsModeAlias(t *testing.T) {
	preds := Build(Options{EmployeeMode: types.ModeInternal, RecruitmentType: types.ModeAgencyStaffing})
	require.Len(t, preds, 2)
	assert.Equal(t, FieldEmployeeMode, preds[0].Field)
	assert.Equal(t, FieldEmployeeMode, preds[1].Field)

	// Conflicting modes can never both hold.
	assert.False(t, Match(preds, &types.Application{Staffing: types.Internal{}}))
}

func TestMatch(t *testing.T) {
	client := uuid.New()
	agency := uuid.New()
	stageA := uuid.New()
	stageB := uuid.New()
	end := date("2024-12-31")

	direct := &types.Application{
		Email:   "jane@x.com",
		StageID: stageA,
		Staffing: types.DirectStaffing{
			ClientCompanyID: client,
			Contract:        types.DateRange{Start: date("2024-03-01"), End: &end},
		},
	}
	direct.Source = types.SourceReferral

	agencyApp := &types.Application{
		Email:   "bob@y.org",
		StageID: stageB,
		Hired:   true,
		Staffing: types.AgencyStaffing{
			StaffingAgencyID: agency,
			ClientCompanyID:  client,
			Contract:         types.DateRange{Start: date("2023-06-01")},
		},
	}

	internal := &types.Application{Email: "amy@x.com", StageID: stageA, Canceled: true}

	all := []*types.Application{direct, agencyApp, internal}

	tests := []struct {
		name string
		opts Options
		want []*types.Application
	}{
		{"no filter", Options{}, all},
		{"mode internal matches nil staffing", Options{EmployeeMode: types.ModeInternal}, []*types.Application{internal}},
		{"client company", Options{ClientCompanyID: &client}, []*types.Application{direct, agencyApp}},
		{"agency", Options{StaffingAgencyID: &agency}, []*types.Application{agencyApp}},
		{"contract start range", Options{ContractStartFrom: ptr(date("2024-01-01")), ContractStartTo: ptr(date("2024-03-01"))}, []*types.Application{direct}},
		{"contract end excludes open ended", Options{ContractEndTo: ptr(date("2025-01-01"))}, []*types.Application{direct}},
		{"stage", Options{StageID: &stageA}, []*types.Application{direct, internal}},
		{"hired", Options{Hired: ptr(true)}, []*types.Application{agencyApp}},
		{"not canceled", Options{Canceled: ptr(false)}, []*types.Application{direct, agencyApp}},
		{"source", Options{Source: types.SourceReferral}, []*types.Application{direct}},
		{"email substring case insensitive", Options{Email: "@X.COM"}, []*types.Application{direct, internal}},
		{"conjunction", Options{StageID: &stageA, Email: "jane"}, []*types.Application{direct}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds := Build(tt.opts)
			var got []*types.Application
			for _, app := range all {
				if Match(preds, app) {
					got = append(got, app)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func ptr[T any](v T) *T { return &v }
