package recruitment

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// AddNote attaches a note to an application in its current stage. Notes are append-only.
func (s *Service) AddNote(ctx context.Context, actor types.Actor, applicationID uuid.UUID, req types.AddNoteRequest) (*types.StageNote, error) {
	if err := types.Validate(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	plain, err := PlainText(req.Text)
	if err != nil {
		return nil, &ErrValidation{Field: "text", Message: err.Error()}
	}

	n := &types.StageNote{
		ID:               uuid.New(),
		ApplicationID:    app.ID,
		StageID:          app.StageID,
		AuthorID:         actor.ID,
		Text:             req.Text,
		PlainText:        plain,
		Attachments:      req.Attachments,
		CandidateCanView: req.CandidateCanView,
		CreatedAt:        s.clock(),
	}
	if err := s.store.InsertNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns the notes of an application. Soft-deleted notes are skipped, and
// only candidate-visible notes are returned when candidateView is set.
func (s *Service) ListNotes(ctx context.Context, applicationID uuid.UUID, candidateView bool) ([]*types.StageNote, error) {
	if _, err := s.loadApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotes(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	visible := make([]*types.StageNote, 0, len(notes))
	for _, n := range notes {
		if n.Deleted || (candidateView && !n.CandidateCanView) {
			continue
		}
		visible = append(visible, n)
	}
	return visible, nil
}

// DeleteNote soft-deletes a note. Only its author or an admin may do so.
func (s *Service) DeleteNote(ctx context.Context, actor types.Actor, noteID uuid.UUID) error {
	n, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return err
	}
	if n == nil {
		return notFound("note", noteID)
	}
	if n.AuthorID != actor.ID && !actor.Admin {
		return &ErrForbidden{Reason: "only the author or an admin can delete a note"}
	}
	if n.Deleted {
		return nil
	}
	return s.store.SoftDeleteNote(ctx, noteID)
}

// PlainText extracts the readable text of a possibly rich HTML note, collapsing whitespace.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse note: %w", err)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
