package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmployeeMode classifies the employment relationship an application leads to.
type EmployeeMode string

// EmployeeMode values
const (
	ModeInternal       EmployeeMode = "internal"
	ModeDirectStaffing EmployeeMode = "direct_staffing"
	ModeAgencyStaffing EmployeeMode = "agency_staffing"
)

// Valid reports whether m is a known mode.
func (m EmployeeMode) Valid() bool {
	switch m {
	case ModeInternal, ModeDirectStaffing, ModeAgencyStaffing:
		return true
	default:
		return false
	}
}

// DateRange is a contract period. End is nil for open-ended contracts.
type DateRange struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// Staffing is the tagged staffing variant carried by applications and employees.
// Only Internal, DirectStaffing and AgencyStaffing implement it.
type Staffing interface {
	Mode() EmployeeMode
	isStaffing()
}

// Internal is a regular in-house hire.
type Internal struct{}

// DirectStaffing places the hire directly with a client company.
type DirectStaffing struct {
	ClientCompanyID  uuid.UUID
	BillingRateCents int64
	PayRateCents     int64
	Contract         DateRange
}

// AgencyStaffing places the hire with a client through a staffing agency.
type AgencyStaffing struct {
	StaffingAgencyID uuid.UUID
	ClientCompanyID  uuid.UUID
	BillingRateCents int64
	PayRateCents     int64
	Contract         DateRange
}

func (Internal) Mode() EmployeeMode       { return ModeInternal }
func (DirectStaffing) Mode() EmployeeMode { return ModeDirectStaffing }
func (AgencyStaffing) Mode() EmployeeMode { return ModeAgencyStaffing }

func (Internal) isStaffing()       {}
func (DirectStaffing) isStaffing() {}
func (AgencyStaffing) isStaffing() {}

// StaffingInput is the flat wire and storage form of a Staffing variant.
type StaffingInput struct {
	Mode             EmployeeMode `json:"mode" validate:"omitempty,oneof=internal direct_staffing agency_staffing"`
	ClientCompanyID  *uuid.UUID   `json:"client_company_id,omitempty"`
	StaffingAgencyID *uuid.UUID   `json:"staffing_agency_id,omitempty"`
	BillingRateCents *int64       `json:"billing_rate_cents,omitempty" validate:"omitempty,min=0"`
	PayRateCents     *int64       `json:"pay_rate_cents,omitempty" validate:"omitempty,min=0"`
	ContractStart    *time.Time   `json:"contract_start,omitempty"`
	ContractEnd      *time.Time   `json:"contract_end,omitempty"`
}

// Build converts the flat form into its variant, rejecting fields that do not belong to the mode.
func (in StaffingInput) Build() (Staffing, error) {
	switch in.Mode {
	case "", ModeInternal:
		if in.ClientCompanyID != nil || in.StaffingAgencyID != nil || in.BillingRateCents != nil ||
			in.PayRateCents != nil || in.ContractStart != nil || in.ContractEnd != nil {
			return nil, fmt.Errorf("internal staffing takes no client, agency, rate or contract fields")
		}
		return Internal{}, nil
	case ModeDirectStaffing:
		if in.StaffingAgencyID != nil {
			return nil, fmt.Errorf("direct staffing takes no staffing agency")
		}
		if in.ClientCompanyID == nil {
			return nil, fmt.Errorf("direct staffing requires a client company")
		}
		contract, err := in.contract()
		if err != nil {
			return nil, err
		}
		return DirectStaffing{
			ClientCompanyID:  *in.ClientCompanyID,
			BillingRateCents: deref(in.BillingRateCents),
			PayRateCents:     deref(in.PayRateCents),
			Contract:         contract,
		}, nil
	case ModeAgencyStaffing:
		if in.ClientCompanyID == nil || in.StaffingAgencyID == nil {
			return nil, fmt.Errorf("agency staffing requires a client company and a staffing agency")
		}
		contract, err := in.contract()
		if err != nil {
			return nil, err
		}
		return AgencyStaffing{
			StaffingAgencyID: *in.StaffingAgencyID,
			ClientCompanyID:  *in.ClientCompanyID,
			BillingRateCents: deref(in.BillingRateCents),
			PayRateCents:     deref(in.PayRateCents),
			Contract:         contract,
		}, nil
	default:
		return nil, fmt.Errorf("unknown employee mode %q", in.Mode)
	}
}

func (in StaffingInput) contract() (DateRange, error) {
	if in.ContractStart == nil {
		return DateRange{}, fmt.Errorf("%s requires a contract start date", in.Mode)
	}
	if in.ContractEnd != nil && in.ContractEnd.Before(*in.ContractStart) {
		return DateRange{}, fmt.Errorf("contract end is before contract start")
	}
	return DateRange{Start: *in.ContractStart, End: in.ContractEnd}, nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// Flatten converts a variant back into its flat form. A nil variant is Internal.
func Flatten(s Staffing) StaffingInput {
	switch v := s.(type) {
	case DirectStaffing:
		return StaffingInput{
			Mode:             ModeDirectStaffing,
			ClientCompanyID:  &v.ClientCompanyID,
			BillingRateCents: &v.BillingRateCents,
			PayRateCents:     &v.PayRateCents,
			ContractStart:    &v.Contract.Start,
			ContractEnd:      v.Contract.End,
		}
	case AgencyStaffing:
		return StaffingInput{
			Mode:             ModeAgencyStaffing,
			ClientCompanyID:  &v.ClientCompanyID,
			StaffingAgencyID: &v.StaffingAgencyID,
			BillingRateCents: &v.BillingRateCents,
			PayRateCents:     &v.PayRateCents,
			ContractStart:    &v.Contract.Start,
			ContractEnd:      v.Contract.End,
		}
	default:
		return StaffingInput{Mode: ModeInternal}
	}
}

// OrInternal returns s, or Internal when s is nil.
func OrInternal(s Staffing) Staffing {
	if s == nil {
		return Internal{}
	}
	return s
}
