package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-pipeline/internal/query"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// applicationMutable lists every column after the immutable id, recruitment_id and email.
const applicationMutable = detailColumns + `, job_position_id, ` + staffingColumns + `,
	stage_id, sequence, schedule_date, hired, canceled, start_onboard, cancel_reason,
	offer_letter_status, joining_date, probation_end, hired_date, converted_employee_id,
	archived, version, created_at, updated_at`

const applicationColumns = `id, recruitment_id, email, ` + applicationMutable

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	var staffing types.StaffingInput
	dest := []any{&a.ID, &a.RecruitmentID, &a.Email}
	dest = append(dest, detailDest(&a.PersonalDetails)...)
	dest = append(dest, &a.JobPositionID)
	dest = append(dest, staffingDest(&staffing)...)
	dest = append(dest,
		&a.StageID, &a.Sequence, &a.ScheduleDate, &a.Hired, &a.Canceled, &a.StartOnboard, &a.CancelReason,
		&a.OfferLetterStatus, &a.JoiningDate, &a.ProbationEnd, &a.HiredDate, &a.ConvertedEmployeeID,
		&a.Archived, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s, err := buildStaffing(staffing)
	if err != nil {
		return nil, err
	}
	a.Staffing = s
	return &a, nil
}

func applicationArgs(a *types.Application) []any {
	args := []any{a.ID, a.RecruitmentID, a.Email}
	args = append(args, detailArgs(a.PersonalDetails)...)
	args = append(args, a.JobPositionID)
	args = append(args, staffingArgs(a.Staffing)...)
	return append(args,
		a.StageID, a.Sequence, a.ScheduleDate, a.Hired, a.Canceled, a.StartOnboard, a.CancelReason,
		string(a.OfferLetterStatus), a.JoiningDate, a.ProbationEnd, a.HiredDate, a.ConvertedEmployeeID,
		a.Archived, a.Version, a.CreatedAt, a.UpdatedAt,
	)
}

func applicationViolation(a *types.Application) violation {
	return violation{entity: "application", id: a.ID, email: strings.ToLower(a.Email), recruitmentID: a.RecruitmentID, stageID: a.StageID}
}

// InsertApplication stores a new application with its create entry, and its new profile
// when one is given, in one transaction.
func (db *DB) InsertApplication(ctx context.Context, w recruitment.ApplicationInsert) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if w.Profile != nil {
			if err := insertCandidate(ctx, tx, w.Profile, w.ProfileEntry); err != nil {
				return err
			}
		}
		app := w.App
		if err := appendToStage(ctx, tx, app); err != nil {
			return err
		}
		if err := insertAudit(ctx, tx, w.Entry); err != nil {
			return err
		}
		args := applicationArgs(app)
		_, err := tx.Exec(ctx,
			`INSERT INTO applications (`+applicationColumns+`) VALUES (`+placeholders(1, len(args))+`)`,
			args...,
		)
		if err != nil {
			return translateFor(err, applicationViolation(app))
		}
		return nil
	})
}

// appendToStage gives a zero-sequence application the next sequence of its stage. The
// stage row is locked first so concurrent appenders queue instead of colliding; the lock
// does not block foreign key checks.
func appendToStage(ctx context.Context, tx pgx.Tx, a *types.Application) error {
	if a.Sequence != 0 {
		return nil
	}
	var locked uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT id FROM stages WHERE id = $1 AND recruitment_id = $2 FOR NO KEY UPDATE`,
		a.StageID, a.RecruitmentID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &recruitment.ErrInvalidStage{StageID: a.StageID, RecruitmentID: a.RecruitmentID}
		}
		return fmt.Errorf("failed to lock stage: %w", err)
	}
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM applications
		 WHERE recruitment_id = $1 AND stage_id = $2 AND NOT archived`,
		a.RecruitmentID, a.StageID,
	).Scan(&a.Sequence)
	if err != nil {
		return fmt.Errorf("failed to read stage sequence: %w", err)
	}
	return nil
}

// UpdateApplication replaces an application if its version still matches.
func (db *DB) UpdateApplication(ctx context.Context, w recruitment.ApplicationWrite) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		return updateApplication(ctx, tx, w)
	})
}

// updateApplication locks the row, checks version and identity, then writes entry and record.
func updateApplication(ctx context.Context, tx pgx.Tx, w recruitment.ApplicationWrite) error {
	a := w.App
	var version int
	var email string
	var recruitmentID uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT version, email, recruitment_id FROM applications WHERE id = $1 FOR UPDATE`, a.ID,
	).Scan(&version, &email, &recruitmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &recruitment.ErrNotFound{Entity: "application", ID: a.ID.String()}
		}
		return fmt.Errorf("failed to lock application: %w", err)
	}
	if version != w.ExpectedVersion {
		return &recruitment.ErrConflict{Entity: "application", ID: a.ID, Reason: "version changed"}
	}
	if !strings.EqualFold(email, a.Email) || recruitmentID != a.RecruitmentID {
		return &recruitment.ErrValidation{Field: "email", Message: "application identity cannot be changed"}
	}
	if err := appendToStage(ctx, tx, a); err != nil {
		return err
	}

	if err := insertAudit(ctx, tx, w.Entry); err != nil {
		return err
	}
	args := append(applicationArgs(a)[3:], a.ID)
	_, err = tx.Exec(ctx,
		`UPDATE applications SET `+setList(applicationMutable, 1)+`
		 WHERE id = $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", translateFor(err, applicationViolation(a)))
	}
	return nil
}

// GetApplication returns an application by id
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

func (db *DB) listApplications(ctx context.Context, query string, args ...any) ([]*types.Application, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*types.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListApplications returns non-archived applications matching every predicate.
func (db *DB) ListApplications(ctx context.Context, preds []query.Predicate) ([]*types.Application, error) {
	sql, args, err := appendPredicates(
		`SELECT `+applicationColumns+` FROM applications WHERE NOT archived`, nil, preds)
	if err != nil {
		return nil, err
	}
	return db.listApplications(ctx, sql+` ORDER BY created_at, id`, args...)
}

// ListApplicationsByEmail returns every application with the email, archived included.
func (db *DB) ListApplicationsByEmail(ctx context.Context, email string) ([]*types.Application, error) {
	return db.listApplications(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE lower(email) = lower($1) ORDER BY created_at, id`,
		strings.TrimSpace(email))
}

// ResequenceStage renumbers a stage's members 1..n in the given order.
func (db *DB) ResequenceStage(ctx context.Context, recruitmentID, stageID uuid.UUID, orderedIDs []uuid.UUID) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SET CONSTRAINTS applications_stage_sequence_excl DEFERRED`); err != nil {
			return fmt.Errorf("failed to defer sequence constraint: %w", err)
		}

		rows, err := tx.Query(ctx,
			`SELECT id FROM applications
			 WHERE recruitment_id = $1 AND stage_id = $2 AND NOT archived
			 FOR UPDATE`,
			recruitmentID, stageID)
		if err != nil {
			return fmt.Errorf("failed to lock stage: %w", err)
		}
		members, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("failed to lock stage: %w", err)
		}

		inStage := make(map[uuid.UUID]bool, len(members))
		for _, id := range members {
			inStage[id] = true
		}
		if len(orderedIDs) != len(members) {
			return &recruitment.ErrConflict{Entity: "stage", ID: stageID, Reason: "stage membership changed"}
		}
		for _, id := range orderedIDs {
			if !inStage[id] {
				return &recruitment.ErrConflict{Entity: "stage", ID: stageID, Reason: fmt.Sprintf("application %s is not in the stage", id)}
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE applications a
			 SET sequence = o.n, version = a.version + 1
			 FROM unnest($1::uuid[]) WITH ORDINALITY AS o(id, n)
			 WHERE a.id = o.id`,
			orderedIDs)
		if err != nil {
			return fmt.Errorf("failed to resequence stage: %w", translate(err))
		}
		return nil
	})
}
