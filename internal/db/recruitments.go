package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-pipeline/internal/types"
)

const recruitmentColumns = `id, title, company_id, job_position_id, manager_ids, closed, created_at`

func scanRecruitment(row pgx.Row) (*types.Recruitment, error) {
	var r types.Recruitment
	if err := row.Scan(&r.ID, &r.Title, &r.CompanyID, &r.JobPositionID, &r.ManagerIDs, &r.Closed, &r.CreatedAt); err != nil {
		return nil, err
	}
	if len(r.ManagerIDs) == 0 {
		r.ManagerIDs = nil
	}
	return &r, nil
}

// InsertRecruitment stores a recruitment together with its stages.
func (db *DB) InsertRecruitment(ctx context.Context, r *types.Recruitment, stages []types.Stage) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO recruitments (`+recruitmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, r.Title, r.CompanyID, r.JobPositionID, orEmptyIDs(r.ManagerIDs), r.Closed, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create recruitment: %w", err)
		}

		batch := &pgx.Batch{}
		for _, st := range stages {
			batch.Queue(
				`INSERT INTO stages (id, recruitment_id, name, type, position, manager_ids)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				st.ID, r.ID, st.Name, string(st.Type), st.Position, orEmptyIDs(st.ManagerIDs),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create stages: %w", err)
		}
		return nil
	})
}

// GetRecruitment returns a recruitment by id
func (db *DB) GetRecruitment(ctx context.Context, id uuid.UUID) (*types.Recruitment, error) {
	r, err := scanRecruitment(db.pool.QueryRow(ctx, `SELECT `+recruitmentColumns+` FROM recruitments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recruitment: %w", err)
	}
	return r, nil
}

// ListRecruitments returns every recruitment, newest first.
func (db *DB) ListRecruitments(ctx context.Context) ([]*types.Recruitment, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+recruitmentColumns+` FROM recruitments ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recruitments: %w", err)
	}
	defer rows.Close()

	var out []*types.Recruitment
	for rows.Next() {
		r, err := scanRecruitment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recruitment: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StagesFor returns a recruitment's stages by position.
func (db *DB) StagesFor(ctx context.Context, recruitmentID uuid.UUID) ([]types.Stage, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, recruitment_id, name, type, position, manager_ids
		 FROM stages WHERE recruitment_id = $1 ORDER BY position`,
		recruitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	var stages []types.Stage
	for rows.Next() {
		var st types.Stage
		if err := rows.Scan(&st.ID, &st.RecruitmentID, &st.Name, &st.Type, &st.Position, &st.ManagerIDs); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		if len(st.ManagerIDs) == 0 {
			st.ManagerIDs = nil
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}
