package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
)

// CommitConversion writes the profile and application markers, and the employee when
// present, in one transaction.
func (db *DB) CommitConversion(ctx context.Context, c recruitment.ConversionCommit) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if err := updateCandidate(ctx, tx, c.Candidate); err != nil {
			return err
		}
		if err := updateApplication(ctx, tx, c.Application); err != nil {
			return err
		}
		if c.Employee != nil {
			if err := insertEmployee(ctx, tx, c.Employee); err != nil {
				return err
			}
		}
		return nil
	})
}
