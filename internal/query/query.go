// Package query builds conjunctive filter predicates over candidate applications.
// It holds no state: storage engines either evaluate predicates in memory with Match
// or render them into their own query language.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Field names an indexed application field a predicate can test.
type Field string

// Filterable fields
const (
	FieldEmployeeMode   Field = "employee_mode"
	FieldClientCompany  Field = "client_company_id"
	FieldStaffingAgency Field = "staffing_agency_id"
	FieldContractStart  Field = "contract_start"
	FieldContractEnd    Field = "contract_end"
	FieldStage          Field = "stage_id"
	FieldHired          Field = "hired"
	FieldCanceled       Field = "canceled"
	FieldSource         Field = "source"
	FieldEmail          Field = "email"
)

// Op is a predicate operator.
type Op string

// Operators
const (
	OpEq       Op = "eq"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpContains Op = "contains"
)

// Predicate is a single condition. Value is a string, uuid.UUID, bool or time.Time.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

// Options is the filter configuration. Zero values mean "no filter" for that option.
// EmployeeMode and RecruitmentType both constrain the staffing mode.
type Options struct {
	EmployeeMode      types.EmployeeMode
	RecruitmentType   types.EmployeeMode
	ClientCompanyID   *uuid.UUID
	StaffingAgencyID  *uuid.UUID
	ContractStartFrom *time.Time
	ContractStartTo   *time.Time
	ContractEndFrom   *time.Time
	ContractEndTo     *time.Time
	StageID           *uuid.UUID
	Hired             *bool
	Canceled          *bool
	Source            types.Source
	Email             string
}

// Error reports a malformed value for a recognised option.
type Error struct {
	Option string
	Value  string
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid value %q for filter %s: %v", e.Value, e.Option, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FromValues parses filter options from URL query values. Unknown keys are ignored.
func FromValues(values url.Values) (Options, error) {
	var opts Options
	var err error

	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }

	if v := get("employee_mode"); v != "" {
		if opts.EmployeeMode, err = parseMode("employee_mode", v); err != nil {
			return Options{}, err
		}
	}
	if v := get("recruitment_type"); v != "" {
		if opts.RecruitmentType, err = parseMode("recruitment_type", v); err != nil {
			return Options{}, err
		}
	}

	uuids := []struct {
		key string
		dst **uuid.UUID
	}{
		{"client_company_id", &opts.ClientCompanyID},
		{"staffing_agency_id", &opts.StaffingAgencyID},
		{"stage_id", &opts.StageID},
	}
	for _, u := range uuids {
		v := get(u.key)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return Options{}, &Error{Option: u.key, Value: v, Cause: err}
		}
		*u.dst = &id
	}

	dates := []struct {
		key string
		dst **time.Time
	}{
		{"contract_start_from", &opts.ContractStartFrom},
		{"contract_start_to", &opts.ContractStartTo},
		{"contract_end_from", &opts.ContractEndFrom},
		{"contract_end_to", &opts.ContractEndTo},
	}
	for _, d := range dates {
		v := get(d.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return Options{}, &Error{Option: d.key, Value: v, Cause: err}
		}
		*d.dst = &t
	}

	bools := []struct {
		key string
		dst **bool
	}{
		{"hired", &opts.Hired},
		{"canceled", &opts.Canceled},
	}
	for _, b := range bools {
		v := get(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Options{}, &Error{Option: b.key, Value: v, Cause: err}
		}
		*b.dst = &parsed
	}

	if v := get("source"); v != "" {
		src := types.Source(v)
		if !src.Valid() {
			return Options{}, &Error{Option: "source", Value: v, Cause: fmt.Errorf("unknown source")}
		}
		opts.Source = src
	}
	opts.Email = get("email")

	return opts, nil
}

func parseMode(key, v string) (types.EmployeeMode, error) {
	mode := types.EmployeeMode(v)
	if !mode.Valid() {
		return "", &Error{Option: key, Value: v, Cause: fmt.Errorf("unknown employee mode")}
	}
	return mode, nil
}

// Build turns options into predicates. Absent options produce no predicate, so empty
// options yield an empty slice and a full scan.
func Build(opts Options) []Predicate {
	var preds []Predicate
	add := func(f Field, op Op, v any) {
		preds = append(preds, Predicate{Field: f, Op: op, Value: v})
	}

	if opts.EmployeeMode != "" {
		add(FieldEmployeeMode, OpEq, string(opts.EmployeeMode))
	}
	if opts.RecruitmentType != "" {
		add(FieldEmployeeMode, OpEq, string(opts.RecruitmentType))
	}
	if opts.ClientCompanyID != nil {
		add(FieldClientCompany, OpEq, *opts.ClientCompanyID)
	}
	if opts.StaffingAgencyID != nil {
		add(FieldStaffingAgency, OpEq, *opts.StaffingAgencyID)
	}
	if opts.ContractStartFrom != nil {
		add(FieldContractStart, OpGte, *opts.ContractStartFrom)
	}
	if opts.ContractStartTo != nil {
		add(FieldContractStart, OpLte, *opts.ContractStartTo)
	}
	if opts.ContractEndFrom != nil {
		add(FieldContractEnd, OpGte, *opts.ContractEndFrom)
	}
	if opts.ContractEndTo != nil {
		add(FieldContractEnd, OpLte, *opts.ContractEndTo)
	}
	if opts.StageID != nil {
		add(FieldStage, OpEq, *opts.StageID)
	}
	if opts.Hired != nil {
		add(FieldHired, OpEq, *opts.Hired)
	}
	if opts.Canceled != nil {
		add(FieldCanceled, OpEq, *opts.Canceled)
	}
	if opts.Source != "" {
		add(FieldSource, OpEq, string(opts.Source))
	}
	if opts.Email != "" {
		add(FieldEmail, OpContains, strings.ToLower(opts.Email))
	}
	return preds
}
