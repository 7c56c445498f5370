package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Personal detail columns shared by candidates, applications and employees.
const detailColumns = `name, mobile, portfolio, resume_ref, profile_image_ref, address,
	country, state, city, zip, dob, gender, source, referral_id`

func detailArgs(d types.PersonalDetails) []any {
	return []any{
		d.Name, d.Mobile, d.Portfolio, d.ResumeRef, d.ProfileImageRef, d.Address,
		d.Country, d.State, d.City, d.Zip, d.DOB, string(d.Gender), string(d.Source), d.ReferralID,
	}
}

func detailDest(d *types.PersonalDetails) []any {
	return []any{
		&d.Name, &d.Mobile, &d.Portfolio, &d.ResumeRef, &d.ProfileImageRef, &d.Address,
		&d.Country, &d.State, &d.City, &d.Zip, &d.DOB, &d.Gender, &d.Source, &d.ReferralID,
	}
}

// Staffing variant columns, stored flat.
const staffingColumns = `employee_mode, client_company_id, staffing_agency_id,
	billing_rate_cents, pay_rate_cents, contract_start, contract_end`

func staffingArgs(s types.Staffing) []any {
	f := types.Flatten(s)
	return []any{
		string(f.Mode), f.ClientCompanyID, f.StaffingAgencyID,
		f.BillingRateCents, f.PayRateCents, f.ContractStart, f.ContractEnd,
	}
}

func staffingDest(f *types.StaffingInput) []any {
	return []any{
		&f.Mode, &f.ClientCompanyID, &f.StaffingAgencyID,
		&f.BillingRateCents, &f.PayRateCents, &f.ContractStart, &f.ContractEnd,
	}
}

func buildStaffing(f types.StaffingInput) (types.Staffing, error) {
	s, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("stored staffing is invalid: %w", err)
	}
	return s, nil
}

// placeholders returns "$from, $from+1, ..." for n parameters.
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}

// setList returns "col1 = $from, col2 = $from+1, ..." for a comma-separated column list.
func setList(columns string, from int) string {
	cols := splitColumns(columns)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, from+i)
	}
	return strings.Join(sets, ", ")
}

func splitColumns(columns string) []string {
	return strings.Fields(strings.ReplaceAll(columns, ",", " "))
}

func orEmptyIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
