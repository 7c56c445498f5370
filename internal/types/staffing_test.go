package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStaffingInput_Build(t *testing.T) {
	client := uuid.New()
	agency := uuid.New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    StaffingInput
		wantMode EmployeeMode
		wantErr  bool
	}{
		{name: "empty is internal", input: StaffingInput{}, wantMode: ModeInternal},
		{name: "internal", input: StaffingInput{Mode: ModeInternal}, wantMode: ModeInternal},
		{name: "internal with client", input: StaffingInput{Mode: ModeInternal, ClientCompanyID: &client}, wantErr: true},
		{
			name:     "direct",
			input:    StaffingInput{Mode: ModeDirectStaffing, ClientCompanyID: &client, BillingRateCents: ptr(int64(9000)), ContractStart: &start, ContractEnd: &end},
			wantMode: ModeDirectStaffing,
		},
		{name: "direct without client", input: StaffingInput{Mode: ModeDirectStaffing, ContractStart: &start}, wantErr: true},
		{name: "direct with agency", input: StaffingInput{Mode: ModeDirectStaffing, ClientCompanyID: &client, StaffingAgencyID: &agency, ContractStart: &start}, wantErr: true},
		{name: "direct without contract start", input: StaffingInput{Mode: ModeDirectStaffing, ClientCompanyID: &client}, wantErr: true},
		{
			name:     "agency",
			input:    StaffingInput{Mode: ModeAgencyStaffing, ClientCompanyID: &client, StaffingAgencyID: &agency, ContractStart: &start},
			wantMode: ModeAgencyStaffing,
		},
		{name: "agency without agency", input: StaffingInput{Mode: ModeAgencyStaffing, ClientCompanyID: &client, ContractStart: &start}, wantErr: true},
		{name: "contract end before start", input: StaffingInput{Mode: ModeDirectStaffing, ClientCompanyID: &client, ContractStart: &end, ContractEnd: &start}, wantErr: true},
		{name: "unknown mode", input: StaffingInput{Mode: "freelance"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.input.Build()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, s.Mode())
		})
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	original := AgencyStaffing{
		StaffingAgencyID: uuid.New(),
		ClientCompanyID:  uuid.New(),
		BillingRateCents: 12000,
		PayRateCents:     8000,
		Contract:         DateRange{Start: start},
	}

	rebuilt, err := Flatten(original).Build()
	require.NoError(t, err)
	assert.Equal(t, original, rebuilt)

	assert.Equal(t, ModeInternal, Flatten(nil).Mode)
	assert.Equal(t, Internal{}, OrInternal(nil))
}

func TestApplication_MarshalJSONIncludesStaffing(t *testing.T) {
	client := uuid.New()
	app := Application{
		ID:    uuid.New(),
		Email: "jane@x.com",
		Staffing: DirectStaffing{
			ClientCompanyID: client,
			Contract:        DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		OfferLetterStatus: OfferNotSent,
	}
	app.Name = "Jane"

	data, err := json.Marshal(app)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Jane", decoded["name"])
	staffing, ok := decoded["staffing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "direct_staffing", staffing["mode"])
	assert.Equal(t, client.String(), staffing["client_company_id"])
}

func TestApplication_Terminal(t *testing.T) {
	assert.False(t, (&Application{}).Terminal())
	assert.True(t, (&Application{Hired: true}).Terminal())
	assert.True(t, (&Application{Canceled: true}).Terminal())
}
