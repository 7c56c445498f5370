package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// candidateMutable lists every column after the immutable id and email.
const candidateMutable = detailColumns + `,
	converted, converted_employee_id, archived, version, created_at, updated_at`

const candidateColumns = `id, email, ` + candidateMutable

func scanCandidate(row pgx.Row) (*types.Candidate, error) {
	var c types.Candidate
	dest := []any{&c.ID, &c.Email}
	dest = append(dest, detailDest(&c.PersonalDetails)...)
	dest = append(dest, &c.Converted, &c.ConvertedEmployeeID, &c.Archived, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

func candidateArgs(c *types.Candidate) []any {
	args := []any{c.ID, c.Email}
	args = append(args, detailArgs(c.PersonalDetails)...)
	return append(args, c.Converted, c.ConvertedEmployeeID, c.Archived, c.Version, c.CreatedAt, c.UpdatedAt)
}

// InsertCandidate stores a new profile with its create entry.
func (db *DB) InsertCandidate(ctx context.Context, c *types.Candidate, entry *types.AuditEntry) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		return insertCandidate(ctx, tx, c, entry)
	})
}

func insertCandidate(ctx context.Context, tx pgx.Tx, c *types.Candidate, entry *types.AuditEntry) error {
	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	args := candidateArgs(c)
	_, err := tx.Exec(ctx,
		`INSERT INTO candidates (`+candidateColumns+`) VALUES (`+placeholders(1, len(args))+`)`,
		args...,
	)
	if err != nil {
		return translateFor(err, violation{entity: "candidate", id: c.ID, email: strings.ToLower(c.Email)})
	}
	return nil
}

// UpdateCandidate replaces a profile if its version still matches.
func (db *DB) UpdateCandidate(ctx context.Context, w recruitment.CandidateWrite) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		return updateCandidate(ctx, tx, w)
	})
}

// updateCandidate locks the row, checks version and identity, then writes entry and record.
func updateCandidate(ctx context.Context, tx pgx.Tx, w recruitment.CandidateWrite) error {
	c := w.Candidate
	var version int
	var email string
	err := tx.QueryRow(ctx,
		`SELECT version, email FROM candidates WHERE id = $1 FOR UPDATE`, c.ID,
	).Scan(&version, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &recruitment.ErrNotFound{Entity: "candidate", ID: c.ID.String()}
		}
		return fmt.Errorf("failed to lock candidate: %w", err)
	}
	if version != w.ExpectedVersion {
		return &recruitment.ErrConflict{Entity: "candidate", ID: c.ID, Reason: "version changed"}
	}
	if !strings.EqualFold(email, c.Email) {
		return &recruitment.ErrValidation{Field: "email", Message: "profile email cannot be changed"}
	}

	if err := insertAudit(ctx, tx, w.Entry); err != nil {
		return err
	}
	args := append(candidateArgs(c)[2:], c.ID)
	_, err = tx.Exec(ctx,
		`UPDATE candidates SET `+setList(candidateMutable, 1)+`
		 WHERE id = $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", translateFor(err, violation{entity: "candidate", id: c.ID, email: email}))
	}
	return nil
}

// GetCandidate returns a profile by id
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// GetCandidateByEmail returns a profile by email, case-insensitively
func (db *DB) GetCandidateByEmail(ctx context.Context, email string) (*types.Candidate, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate by email: %w", err)
	}
	return c, nil
}
