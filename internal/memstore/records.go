package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// InsertInterview stores an interview and, when given, the schedule date update.
func (s *Store) InsertInterview(_ context.Context, iv *types.Interview, w *recruitment.ApplicationWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.interviews.Load(iv.ID); exists {
		return fmt.Errorf("interview %s already exists", iv.ID)
	}
	return s.withApplicationLocked(w, func() {
		store(&s.interviews, iv.ID, iv)
	})
}

// UpdateInterview replaces an interview and, when given, the schedule date update.
func (s *Store) UpdateInterview(_ context.Context, iv *types.Interview, w *recruitment.ApplicationWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.interviews.Load(iv.ID); !exists {
		return &recruitment.ErrNotFound{Entity: "interview", ID: iv.ID.String()}
	}
	return s.withApplicationLocked(w, func() {
		store(&s.interviews, iv.ID, iv)
	})
}

// withApplicationLocked checks the optional application write, then applies both it and fn.
func (s *Store) withApplicationLocked(w *recruitment.ApplicationWrite, fn func()) error {
	if w == nil {
		fn()
		return nil
	}
	cur, err := s.checkApplicationLocked(*w)
	if err != nil {
		return err
	}
	s.applyApplicationLocked(cur, *w)
	fn()
	return nil
}

// GetInterview returns an interview by id.
func (s *Store) GetInterview(_ context.Context, id uuid.UUID) (*types.Interview, error) {
	return load[types.Interview](&s.interviews, id), nil
}

// ListInterviews returns an application's interviews ordered by scheduled time.
func (s *Store) ListInterviews(_ context.Context, applicationID uuid.UUID) ([]*types.Interview, error) {
	ivs := collect(&s.interviews, func(iv *types.Interview) bool {
		return iv.ApplicationID == applicationID
	})
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].ScheduledAt.Before(ivs[j].ScheduledAt) })
	return ivs, nil
}

// InsertNote stores a note.
func (s *Store) InsertNote(_ context.Context, n *types.StageNote) error {
	store(&s.notes, n.ID, n)
	return nil
}

// GetNote returns a note by id.
func (s *Store) GetNote(_ context.Context, id uuid.UUID) (*types.StageNote, error) {
	return load[types.StageNote](&s.notes, id), nil
}

// ListNotes returns an application's notes oldest first, deleted ones included.
func (s *Store) ListNotes(_ context.Context, applicationID uuid.UUID) ([]*types.StageNote, error) {
	notes := collect(&s.notes, func(n *types.StageNote) bool {
		return n.ApplicationID == applicationID
	})
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.Before(notes[j].CreatedAt) })
	return notes, nil
}

// SoftDeleteNote flags a note deleted.
func (s *Store) SoftDeleteNote(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := load[types.StageNote](&s.notes, id)
	if n == nil {
		return &recruitment.ErrNotFound{Entity: "note", ID: id.String()}
	}
	n.Deleted = true
	store(&s.notes, id, n)
	return nil
}

// InsertSurveyQuestion stores a survey question.
func (s *Store) InsertSurveyQuestion(_ context.Context, q *types.SurveyQuestion) error {
	store(&s.questions, q.ID, q)
	return nil
}

// GetSurveyQuestion returns a survey question by id.
func (s *Store) GetSurveyQuestion(_ context.Context, id uuid.UUID) (*types.SurveyQuestion, error) {
	return load[types.SurveyQuestion](&s.questions, id), nil
}

// ListSurveyQuestions returns a recruitment's questions ordered by position.
func (s *Store) ListSurveyQuestions(_ context.Context, recruitmentID uuid.UUID) ([]*types.SurveyQuestion, error) {
	qs := collect(&s.questions, func(q *types.SurveyQuestion) bool {
		return q.RecruitmentID == recruitmentID
	})
	sort.Slice(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
	return qs, nil
}

// InsertSurveyAnswer stores an answer, one per question and application.
func (s *Store) InsertSurveyAnswer(_ context.Context, a *types.SurveyAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := answerKey{a.QuestionID, a.ApplicationID}
	if _, taken := s.answerKeys[key]; taken {
		return &recruitment.ErrDuplicateAnswer{QuestionID: a.QuestionID, ApplicationID: a.ApplicationID}
	}
	s.answerKeys[key] = a.ID
	store(&s.answers, a.ID, a)
	return nil
}

// ListSurveyAnswers returns an application's answers in submission order.
func (s *Store) ListSurveyAnswers(_ context.Context, applicationID uuid.UUID) ([]*types.SurveyAnswer, error) {
	answers := collect(&s.answers, func(a *types.SurveyAnswer) bool {
		return a.ApplicationID == applicationID
	})
	sort.Slice(answers, func(i, j int) bool { return answers[i].SubmittedAt.Before(answers[j].SubmittedAt) })
	return answers, nil
}

// InsertRecruitment stores a recruitment and its stages.
func (s *Store) InsertRecruitment(_ context.Context, r *types.Recruitment, stages []types.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recruitments.Load(r.ID); exists {
		return fmt.Errorf("recruitment %s already exists", r.ID)
	}
	ordered := make([]types.Stage, len(stages))
	copy(ordered, stages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })
	store(&s.recruitments, r.ID, r)
	s.stages.Store(r.ID, ordered)
	return nil
}

// GetRecruitment returns a recruitment by id.
func (s *Store) GetRecruitment(_ context.Context, id uuid.UUID) (*types.Recruitment, error) {
	return load[types.Recruitment](&s.recruitments, id), nil
}

// ListRecruitments returns every recruitment, newest first.
func (s *Store) ListRecruitments(_ context.Context) ([]*types.Recruitment, error) {
	rs := collect(&s.recruitments, func(*types.Recruitment) bool { return true })
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
	return rs, nil
}

// StagesFor returns a recruitment's stages ordered by position. Unknown recruitments have none.
func (s *Store) StagesFor(_ context.Context, recruitmentID uuid.UUID) ([]types.Stage, error) {
	v, ok := s.stages.Load(recruitmentID)
	if !ok {
		return nil, nil
	}
	stages := v.([]types.Stage)
	out := make([]types.Stage, len(stages))
	copy(out, stages)
	return out, nil
}

// CreateEmployee stores an employee and returns its id.
func (s *Store) CreateEmployee(_ context.Context, e *types.Employee) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, loaded := s.employees.LoadOrStore(e.ID, copyEmployee(e)); loaded {
		return uuid.Nil, fmt.Errorf("employee %s already exists", e.ID)
	}
	return e.ID, nil
}

func copyEmployee(e *types.Employee) *types.Employee {
	cp := *e
	return &cp
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(_ context.Context, id uuid.UUID) error {
	if _, loaded := s.employees.LoadAndDelete(id); !loaded {
		return &recruitment.ErrNotFound{Entity: "employee", ID: id.String()}
	}
	return nil
}

// GetEmployee returns an employee by id.
func (s *Store) GetEmployee(_ context.Context, id uuid.UUID) (*types.Employee, error) {
	return load[types.Employee](&s.employees, id), nil
}

// ListEmployees returns every employee, oldest first.
func (s *Store) ListEmployees(_ context.Context) ([]*types.Employee, error) {
	emps := collect(&s.employees, func(*types.Employee) bool { return true })
	sort.Slice(emps, func(i, j int) bool { return emps[i].CreatedAt.Before(emps[j].CreatedAt) })
	return emps, nil
}

// CreateUser stores a recruiter account. Emails are unique.
func (s *Store) CreateUser(_ context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := lower(u.Email)
	if _, taken := s.userEmails.Load(email); taken {
		return fmt.Errorf("user email already exists: %s", email)
	}
	store(&s.users, u.ID, u)
	s.userEmails.Store(email, u.ID)
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	return load[types.User](&s.users, id), nil
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	v, ok := s.userEmails.Load(lower(email))
	if !ok {
		return nil, nil
	}
	return load[types.User](&s.users, v.(uuid.UUID)), nil
}
