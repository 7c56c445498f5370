// Package memstore is an in-memory storage engine for the recruitment core.
//
// Records are kept as immutable copies in sync.Maps, so readers never lock and always
// observe a whole record. Writers serialize on a single mutex that also guards the
// uniqueness indexes. Audit trails are copy-on-write slices.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/query"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
)

type appKey struct {
	email         string
	recruitmentID uuid.UUID
}

type seqKey struct {
	recruitmentID uuid.UUID
	stageID       uuid.UUID
	sequence      int
}

type auditKey struct {
	entityType types.EntityType
	entityID   uuid.UUID
}

type answerKey struct {
	questionID    uuid.UUID
	applicationID uuid.UUID
}

// Store implements recruitment.Store, recruitment.StageProvider,
// recruitment.RecruitmentStore, recruitment.EmployeeStore and the server's user store.
type Store struct {
	mu sync.Mutex

	candidates      sync.Map // uuid.UUID -> *types.Candidate
	candidateEmails sync.Map // string -> uuid.UUID
	applications    sync.Map // uuid.UUID -> *types.Application
	audit           sync.Map // auditKey -> []types.AuditEntry
	interviews      sync.Map // uuid.UUID -> *types.Interview
	notes           sync.Map // uuid.UUID -> *types.StageNote
	questions       sync.Map // uuid.UUID -> *types.SurveyQuestion
	answers         sync.Map // uuid.UUID -> *types.SurveyAnswer
	recruitments    sync.Map // uuid.UUID -> *types.Recruitment
	stages          sync.Map // recruitment uuid.UUID -> []types.Stage
	employees       sync.Map // uuid.UUID -> *types.Employee
	users           sync.Map // uuid.UUID -> *types.User
	userEmails      sync.Map // string -> uuid.UUID

	// guarded by mu
	openApps   map[appKey]uuid.UUID
	sequences  map[seqKey]uuid.UUID
	answerKeys map[answerKey]uuid.UUID
}

// New creates an empty Store
func New() *Store {
	return &Store{
		openApps:   make(map[appKey]uuid.UUID),
		sequences:  make(map[seqKey]uuid.UUID),
		answerKeys: make(map[answerKey]uuid.UUID),
	}
}

func load[T any](m *sync.Map, id uuid.UUID) *T {
	v, ok := m.Load(id)
	if !ok {
		return nil
	}
	cp := *v.(*T)
	return &cp
}

func store[T any](m *sync.Map, id uuid.UUID, v *T) {
	cp := *v
	m.Store(id, &cp)
}

func collect[T any](m *sync.Map, keep func(*T) bool) []*T {
	var out []*T
	m.Range(func(_, v any) bool {
		rec := v.(*T)
		if keep(rec) {
			cp := *rec
			out = append(out, &cp)
		}
		return true
	})
	return out
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// appendAudit assigns the next per-entity seq and publishes a new slice. Caller holds mu.
func (s *Store) appendAudit(entry *types.AuditEntry) {
	if entry == nil {
		return
	}
	key := auditKey{entry.EntityType, entry.EntityID}
	var prev []types.AuditEntry
	if v, ok := s.audit.Load(key); ok {
		prev = v.([]types.AuditEntry)
	}
	entry.Seq = int64(len(prev)) + 1
	next := make([]types.AuditEntry, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, *entry)
	s.audit.Store(key, next)
}

// AuditPage returns up to limit entries with seq greater than afterSeq.
func (s *Store) AuditPage(_ context.Context, entityType types.EntityType, entityID uuid.UUID, afterSeq int64, limit int) ([]types.AuditEntry, error) {
	v, ok := s.audit.Load(auditKey{entityType, entityID})
	if !ok {
		return nil, nil
	}
	entries := v.([]types.AuditEntry)
	start := int(afterSeq)
	if start >= len(entries) {
		return nil, nil
	}
	end := len(entries)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page := make([]types.AuditEntry, end-start)
	copy(page, entries[start:end])
	return page, nil
}

// InsertCandidate stores a new profile with its create entry.
func (s *Store) InsertCandidate(_ context.Context, c *types.Candidate, entry *types.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := lower(c.Email)
	if _, taken := s.candidateEmails.Load(email); taken {
		return &recruitment.ErrDuplicateProfile{Email: email}
	}
	s.appendAudit(entry)
	store(&s.candidates, c.ID, c)
	s.candidateEmails.Store(email, c.ID)
	return nil
}

func (s *Store) checkCandidateLocked(w recruitment.CandidateWrite) error {
	cur := load[types.Candidate](&s.candidates, w.Candidate.ID)
	if cur == nil {
		return &recruitment.ErrNotFound{Entity: "candidate", ID: w.Candidate.ID.String()}
	}
	if cur.Version != w.ExpectedVersion {
		return &recruitment.ErrConflict{Entity: "candidate", ID: cur.ID, Reason: "version changed"}
	}
	if lower(cur.Email) != lower(w.Candidate.Email) {
		return &recruitment.ErrValidation{Field: "email", Message: "profile email cannot be changed"}
	}
	return nil
}

// UpdateCandidate replaces a profile if its version still matches.
func (s *Store) UpdateCandidate(_ context.Context, w recruitment.CandidateWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCandidateLocked(w); err != nil {
		return err
	}
	s.appendAudit(w.Entry)
	store(&s.candidates, w.Candidate.ID, w.Candidate)
	return nil
}

// GetCandidate returns a profile by id.
func (s *Store) GetCandidate(_ context.Context, id uuid.UUID) (*types.Candidate, error) {
	return load[types.Candidate](&s.candidates, id), nil
}

// GetCandidateByEmail returns a profile by email, case-insensitively.
func (s *Store) GetCandidateByEmail(_ context.Context, email string) (*types.Candidate, error) {
	v, ok := s.candidateEmails.Load(lower(email))
	if !ok {
		return nil, nil
	}
	return load[types.Candidate](&s.candidates, v.(uuid.UUID)), nil
}

// InsertApplication stores a new application with its create entry, and its new profile
// when one is given.
func (s *Store) InsertApplication(_ context.Context, w recruitment.ApplicationInsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var email string
	if w.Profile != nil {
		email = lower(w.Profile.Email)
		if _, taken := s.candidateEmails.Load(email); taken {
			return &recruitment.ErrDuplicateProfile{Email: email}
		}
	}
	if err := s.placeLocked(w.App); err != nil {
		return err
	}
	if err := s.checkSlotsLocked(w.App); err != nil {
		return err
	}
	if w.Profile != nil {
		s.appendAudit(w.ProfileEntry)
		store(&s.candidates, w.Profile.ID, w.Profile)
		s.candidateEmails.Store(email, w.Profile.ID)
	}
	s.appendAudit(w.Entry)
	s.indexLocked(nil, w.App)
	store(&s.applications, w.App.ID, w.App)
	return nil
}

// placeLocked checks that the application's stage belongs to its recruitment and appends
// it to the end of that stage when its sequence is zero. Caller holds mu.
func (s *Store) placeLocked(app *types.Application) error {
	var stages []types.Stage
	if v, ok := s.stages.Load(app.RecruitmentID); ok {
		stages = v.([]types.Stage)
	}
	found := false
	for _, st := range stages {
		if st.ID == app.StageID {
			found = true
			break
		}
	}
	if !found {
		return &recruitment.ErrInvalidStage{StageID: app.StageID, RecruitmentID: app.RecruitmentID}
	}
	if app.Sequence == 0 {
		app.Sequence = s.maxSequenceLocked(app.RecruitmentID, app.StageID) + 1
	}
	return nil
}

// checkSlotsLocked verifies next can take its uniqueness slots. Slots it already holds are fine.
func (s *Store) checkSlotsLocked(next *types.Application) error {
	if next.Archived {
		return nil
	}
	key := appKey{lower(next.Email), next.RecruitmentID}
	if holder, ok := s.openApps[key]; ok && holder != next.ID {
		return &recruitment.ErrDuplicateApplication{Email: key.email, RecruitmentID: next.RecruitmentID}
	}
	seq := seqKey{next.RecruitmentID, next.StageID, next.Sequence}
	if holder, ok := s.sequences[seq]; ok && holder != next.ID {
		return &recruitment.ErrConflict{Entity: "application", ID: next.ID, Reason: fmt.Sprintf("sequence %d is taken in stage %s", next.Sequence, next.StageID)}
	}
	return nil
}

// indexLocked moves the uniqueness slots from cur to next.
func (s *Store) indexLocked(cur, next *types.Application) {
	if cur != nil && !cur.Archived {
		delete(s.openApps, appKey{lower(cur.Email), cur.RecruitmentID})
		delete(s.sequences, seqKey{cur.RecruitmentID, cur.StageID, cur.Sequence})
	}
	if next != nil && !next.Archived {
		s.openApps[appKey{lower(next.Email), next.RecruitmentID}] = next.ID
		s.sequences[seqKey{next.RecruitmentID, next.StageID, next.Sequence}] = next.ID
	}
}

func (s *Store) checkApplicationLocked(w recruitment.ApplicationWrite) (*types.Application, error) {
	cur := load[types.Application](&s.applications, w.App.ID)
	if cur == nil {
		return nil, &recruitment.ErrNotFound{Entity: "application", ID: w.App.ID.String()}
	}
	if cur.Version != w.ExpectedVersion {
		return nil, &recruitment.ErrConflict{Entity: "application", ID: cur.ID, Reason: "version changed"}
	}
	if lower(cur.Email) != lower(w.App.Email) || cur.RecruitmentID != w.App.RecruitmentID {
		return nil, &recruitment.ErrValidation{Field: "email", Message: "application identity cannot be changed"}
	}
	if err := s.placeLocked(w.App); err != nil {
		return nil, err
	}
	if err := s.checkSlotsLocked(w.App); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *Store) applyApplicationLocked(cur *types.Application, w recruitment.ApplicationWrite) {
	s.appendAudit(w.Entry)
	s.indexLocked(cur, w.App)
	store(&s.applications, w.App.ID, w.App)
}

// UpdateApplication replaces an application if its version still matches.
func (s *Store) UpdateApplication(_ context.Context, w recruitment.ApplicationWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.checkApplicationLocked(w)
	if err != nil {
		return err
	}
	s.applyApplicationLocked(cur, w)
	return nil
}

// GetApplication returns an application by id.
func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*types.Application, error) {
	return load[types.Application](&s.applications, id), nil
}

func sortApplications(apps []*types.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.Before(apps[j].CreatedAt)
		}
		return apps[i].ID.String() < apps[j].ID.String()
	})
}

// ListApplications returns non-archived applications matching every predicate.
func (s *Store) ListApplications(_ context.Context, preds []query.Predicate) ([]*types.Application, error) {
	apps := collect(&s.applications, func(a *types.Application) bool {
		return !a.Archived && query.Match(preds, a)
	})
	sortApplications(apps)
	return apps, nil
}

// ListApplicationsByEmail returns every application with the email, archived included.
func (s *Store) ListApplicationsByEmail(_ context.Context, email string) ([]*types.Application, error) {
	email = lower(email)
	apps := collect(&s.applications, func(a *types.Application) bool {
		return lower(a.Email) == email
	})
	sortApplications(apps)
	return apps, nil
}

// maxSequenceLocked returns the highest sequence among the stage's non-archived
// applications. Caller holds mu, so no write can interleave.
func (s *Store) maxSequenceLocked(recruitmentID, stageID uuid.UUID) int {
	highest := 0
	s.applications.Range(func(_, v any) bool {
		a := v.(*types.Application)
		if !a.Archived && a.RecruitmentID == recruitmentID && a.StageID == stageID && a.Sequence > highest {
			highest = a.Sequence
		}
		return true
	})
	return highest
}

// ResequenceStage renumbers a stage's members 1..n in the given order.
func (s *Store) ResequenceStage(_ context.Context, recruitmentID, stageID uuid.UUID, orderedIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := collect(&s.applications, func(a *types.Application) bool {
		return !a.Archived && a.RecruitmentID == recruitmentID && a.StageID == stageID
	})
	byID := make(map[uuid.UUID]*types.Application, len(members))
	for _, a := range members {
		byID[a.ID] = a
	}
	if len(orderedIDs) != len(members) {
		return &recruitment.ErrConflict{Entity: "stage", ID: stageID, Reason: "stage membership changed"}
	}
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return &recruitment.ErrConflict{Entity: "stage", ID: stageID, Reason: fmt.Sprintf("application %s is not in the stage", id)}
		}
	}

	for _, a := range members {
		delete(s.sequences, seqKey{recruitmentID, stageID, a.Sequence})
	}
	for i, id := range orderedIDs {
		a := byID[id]
		a.Sequence = i + 1
		a.Version++
		s.sequences[seqKey{recruitmentID, stageID, a.Sequence}] = id
		store(&s.applications, id, a)
	}
	return nil
}

// CommitConversion persists the conversion markers and, when present, the employee.
func (s *Store) CommitConversion(_ context.Context, c recruitment.ConversionCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCandidateLocked(c.Candidate); err != nil {
		return err
	}
	cur, err := s.checkApplicationLocked(c.Application)
	if err != nil {
		return err
	}
	if c.Employee != nil {
		if _, exists := s.employees.Load(c.Employee.ID); exists {
			return &recruitment.ErrConflict{Entity: "employee", ID: c.Employee.ID, Reason: "employee already exists"}
		}
		store(&s.employees, c.Employee.ID, c.Employee)
	}
	s.appendAudit(c.Candidate.Entry)
	store(&s.candidates, c.Candidate.Candidate.ID, c.Candidate.Candidate)
	s.applyApplicationLocked(cur, c.Application)
	return nil
}

var (
	_ recruitment.Store            = (*Store)(nil)
	_ recruitment.StageProvider    = (*Store)(nil)
	_ recruitment.RecruitmentStore = (*Store)(nil)
	_ recruitment.EmployeeStore    = (*Store)(nil)
)
