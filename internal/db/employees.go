package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
)

const employeeColumns = `id, email, ` + detailColumns + `, job_position_id, recruitment_id, ` +
	staffingColumns + `, joining_date, probation_end, source_application_id, created_at`

func insertEmployee(ctx context.Context, q querier, e *types.Employee) error {
	args := []any{e.ID, e.Email}
	args = append(args, detailArgs(e.PersonalDetails)...)
	args = append(args, e.JobPositionID, e.RecruitmentID)
	args = append(args, staffingArgs(e.Staffing)...)
	args = append(args, e.JoiningDate, e.ProbationEnd, e.SourceApplicationID, e.CreatedAt)

	_, err := q.Exec(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES (`+placeholders(1, len(args))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", translateFor(err, violation{entity: "employee", id: e.ID}))
	}
	return nil
}

func scanEmployee(row pgx.Row) (*types.Employee, error) {
	var e types.Employee
	var staffing types.StaffingInput
	dest := []any{&e.ID, &e.Email}
	dest = append(dest, detailDest(&e.PersonalDetails)...)
	dest = append(dest, &e.JobPositionID, &e.RecruitmentID)
	dest = append(dest, staffingDest(&staffing)...)
	dest = append(dest, &e.JoiningDate, &e.ProbationEnd, &e.SourceApplicationID, &e.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s, err := buildStaffing(staffing)
	if err != nil {
		return nil, err
	}
	e.Staffing = s
	return &e, nil
}

// CreateEmployee stores an employee outside a conversion commit, assigning an id if unset.
func (db *DB) CreateEmployee(ctx context.Context, e *types.Employee) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if err := insertEmployee(ctx, db.pool, e); err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

// DeleteEmployee removes an employee. It only runs as compensation for a failed conversion.
func (db *DB) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &recruitment.ErrNotFound{Entity: "employee", ID: id.String()}
	}
	return nil
}

// GetEmployee returns an employee by id
func (db *DB) GetEmployee(ctx context.Context, id uuid.UUID) (*types.Employee, error) {
	e, err := scanEmployee(db.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns every employee, oldest first.
func (db *DB) ListEmployees(ctx context.Context) ([]*types.Employee, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var emps []*types.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emps = append(emps, e)
	}
	return emps, rows.Err()
}
