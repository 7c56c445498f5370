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

// -----------------------------------------------------------------------------
// Interview Methods
// -----------------------------------------------------------------------------

const interviewColumns = `id, application_id, scheduled_at, interviewer_ids, description, completed, created_at`

func scanInterview(row pgx.Row) (*types.Interview, error) {
	var iv types.Interview
	err := row.Scan(&iv.ID, &iv.ApplicationID, &iv.ScheduledAt, &iv.InterviewerIDs, &iv.Description, &iv.Completed, &iv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// InsertInterview stores an interview, applying the application write in the same transaction.
func (db *DB) InsertInterview(ctx context.Context, iv *types.Interview, w *recruitment.ApplicationWrite) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if w != nil {
			if err := updateApplication(ctx, tx, *w); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO interviews (`+interviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			iv.ID, iv.ApplicationID, iv.ScheduledAt, orEmptyIDs(iv.InterviewerIDs), iv.Description, iv.Completed, iv.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create interview: %w", err)
		}
		return nil
	})
}

// UpdateInterview replaces an interview, applying the application write in the same transaction.
func (db *DB) UpdateInterview(ctx context.Context, iv *types.Interview, w *recruitment.ApplicationWrite) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if w != nil {
			if err := updateApplication(ctx, tx, *w); err != nil {
				return err
			}
		}
		result, err := tx.Exec(ctx,
			`UPDATE interviews SET scheduled_at = $2, interviewer_ids = $3, description = $4, completed = $5
			 WHERE id = $1`,
			iv.ID, iv.ScheduledAt, orEmptyIDs(iv.InterviewerIDs), iv.Description, iv.Completed,
		)
		if err != nil {
			return fmt.Errorf("failed to update interview: %w", err)
		}
		if result.RowsAffected() == 0 {
			return &recruitment.ErrNotFound{Entity: "interview", ID: iv.ID.String()}
		}
		return nil
	})
}

// GetInterview returns an interview by id
func (db *DB) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	iv, err := scanInterview(db.pool.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return iv, nil
}

// ListInterviews returns an application's interviews in schedule order.
func (db *DB) ListInterviews(ctx context.Context, applicationID uuid.UUID) ([]*types.Interview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE application_id = $1 ORDER BY scheduled_at, id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var ivs []*types.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		ivs = append(ivs, iv)
	}
	return ivs, rows.Err()
}

// -----------------------------------------------------------------------------
// Stage Note Methods
// -----------------------------------------------------------------------------

const noteColumns = `id, application_id, stage_id, author_id, text, plain_text, attachments,
	candidate_can_view, deleted, created_at`

func scanNote(row pgx.Row) (*types.StageNote, error) {
	var n types.StageNote
	err := row.Scan(&n.ID, &n.ApplicationID, &n.StageID, &n.AuthorID, &n.Text, &n.PlainText, &n.Attachments,
		&n.CandidateCanView, &n.Deleted, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(n.Attachments) == 0 {
		n.Attachments = nil
	}
	return &n, nil
}

// InsertNote stores a stage note
func (db *DB) InsertNote(ctx context.Context, n *types.StageNote) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO stage_notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.ApplicationID, n.StageID, n.AuthorID, n.Text, n.PlainText, orEmptyStrings(n.Attachments),
		n.CandidateCanView, n.Deleted, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// GetNote returns a note by id, deleted or not
func (db *DB) GetNote(ctx context.Context, id uuid.UUID) (*types.StageNote, error) {
	n, err := scanNote(db.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM stage_notes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

// ListNotes returns every note of an application, oldest first.
func (db *DB) ListNotes(ctx context.Context, applicationID uuid.UUID) ([]*types.StageNote, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM stage_notes WHERE application_id = $1 ORDER BY created_at, id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*types.StageNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SoftDeleteNote flags a note as deleted
func (db *DB) SoftDeleteNote(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `UPDATE stage_notes SET deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &recruitment.ErrNotFound{Entity: "note", ID: id.String()}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Survey Methods
// -----------------------------------------------------------------------------

const questionColumns = `id, recruitment_id, question, mandatory, answer_schema, position`

func scanQuestion(row pgx.Row) (*types.SurveyQuestion, error) {
	var q types.SurveyQuestion
	var schema []byte
	if err := row.Scan(&q.ID, &q.RecruitmentID, &q.Question, &q.Mandatory, &schema, &q.Position); err != nil {
		return nil, err
	}
	q.AnswerSchema = schema
	return &q, nil
}

// nullJSON keeps an absent document as SQL NULL rather than a JSON null.
func nullJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// InsertSurveyQuestion stores a survey question
func (db *DB) InsertSurveyQuestion(ctx context.Context, q *types.SurveyQuestion) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO survey_questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.RecruitmentID, q.Question, q.Mandatory, nullJSON(q.AnswerSchema), q.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to create survey question: %w", err)
	}
	return nil
}

// GetSurveyQuestion returns a question by id
func (db *DB) GetSurveyQuestion(ctx context.Context, id uuid.UUID) (*types.SurveyQuestion, error) {
	q, err := scanQuestion(db.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM survey_questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get survey question: %w", err)
	}
	return q, nil
}

// ListSurveyQuestions returns a recruitment's questions by position.
func (db *DB) ListSurveyQuestions(ctx context.Context, recruitmentID uuid.UUID) ([]*types.SurveyQuestion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM survey_questions WHERE recruitment_id = $1 ORDER BY position, id`,
		recruitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list survey questions: %w", err)
	}
	defer rows.Close()

	var qs []*types.SurveyQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey question: %w", err)
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

const answerColumns = `id, application_id, question_id, recruitment_id, answer, attachment_ref, submitted_at`

// InsertSurveyAnswer stores an answer. A second answer to the same question fails.
func (db *DB) InsertSurveyAnswer(ctx context.Context, a *types.SurveyAnswer) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO survey_answers (`+answerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ApplicationID, a.QuestionID, a.RecruitmentID, []byte(a.Answer), a.AttachmentRef, a.SubmittedAt,
	)
	if err != nil {
		return translateFor(err, violation{entity: "survey_answer", id: a.ID, questionID: a.QuestionID, applicationID: a.ApplicationID})
	}
	return nil
}

// ListSurveyAnswers returns an application's answers in submission order.
func (db *DB) ListSurveyAnswers(ctx context.Context, applicationID uuid.UUID) ([]*types.SurveyAnswer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+answerColumns+` FROM survey_answers WHERE application_id = $1 ORDER BY submitted_at, id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list survey answers: %w", err)
	}
	defer rows.Close()

	var answers []*types.SurveyAnswer
	for rows.Next() {
		var a types.SurveyAnswer
		var answer []byte
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.QuestionID, &a.RecruitmentID, &answer, &a.AttachmentRef, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan survey answer: %w", err)
		}
		a.Answer = answer
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}
