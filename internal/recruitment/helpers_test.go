package recruitment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/memstore"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/require"
)

var defaultStages = []types.StageTemplate{
	{Name: "Applied", Type: types.StageSourced},
	{Name: "Shortlisted", Type: types.StageShortlisted},
	{Name: "Interview", Type: types.StageInterview},
	{Name: "Hired", Type: types.StageSelected},
	{Name: "Cancelled", Type: types.StageCancelled},
}

// tickingClock advances one second per call so records have distinct timestamps.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// recordingNotifier collects stage notices.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []types.StageNotice
}

func (n *recordingNotifier) StageChanged(notice types.StageNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) all() []types.StageNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.StageNotice(nil), n.notices...)
}

// slowStore delays the reads that precede a write so concurrent callers all read before
// any of them commits. With stale set, ListApplicationsByEmail reports nothing, as if a
// competing application landed right after the read.
type slowStore struct {
	*memstore.Store
	delay time.Duration
	stale bool
}

func (s *slowStore) GetCandidateByEmail(ctx context.Context, email string) (*types.Candidate, error) {
	time.Sleep(s.delay)
	return s.Store.GetCandidateByEmail(ctx, email)
}

func (s *slowStore) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := s.Store.GetApplication(ctx, id)
	time.Sleep(s.delay)
	return app, err
}

func (s *slowStore) ListApplicationsByEmail(ctx context.Context, email string) ([]*types.Application, error) {
	time.Sleep(s.delay)
	if s.stale {
		return nil, nil
	}
	return s.Store.ListApplicationsByEmail(ctx, email)
}

func withSlowStore(delay time.Duration, stale bool) func(*recruitment.Options) {
	return func(o *recruitment.Options) {
		o.Store = &slowStore{Store: o.Store.(*memstore.Store), delay: delay, stale: stale}
	}
}

// concurrently runs fn n times at once and returns each call's error.
func concurrently(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	svc      *recruitment.Service
	notifier *recordingNotifier
	actor    types.Actor
	manager  uuid.UUID
}

func newFixture(t *testing.T, mutate ...func(*recruitment.Options)) *fixture {
	t.Helper()
	st := memstore.New()
	n := &recordingNotifier{}
	clock := &tickingClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts := recruitment.Options{
		Store:           st,
		Stages:          st,
		Recruitments:    st,
		Notifier:        n,
		ProbationDays:   90,
		HistoryPageSize: 2,
		StageTemplate:   defaultStages,
		Now:             clock.Now,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &fixture{
		ctx:      context.Background(),
		store:    st,
		svc:      recruitment.New(opts),
		notifier: n,
		actor:    types.Actor{ID: uuid.New()},
		manager:  uuid.New(),
	}
}

// newRecruitment creates a recruitment from the default template.
func (f *fixture) newRecruitment(t *testing.T, title string) (*types.Recruitment, []types.Stage) {
	t.Helper()
	r, stages, err := f.svc.CreateRecruitment(f.ctx, types.CreateRecruitmentRequest{
		Title:      title,
		ManagerIDs: []uuid.UUID{f.manager},
	})
	require.NoError(t, err)
	return r, stages
}

func (f *fixture) apply(t *testing.T, email string, recruitmentID uuid.UUID) *types.Application {
	t.Helper()
	app, err := f.svc.Apply(f.ctx, f.actor, types.ApplyRequest{
		Email:         email,
		RecruitmentID: recruitmentID,
		Details:       &types.PersonalDetails{Name: "Jane Doe", Source: types.SourceLinkedIn},
	})
	require.NoError(t, err)
	return app
}

func stageOf(stages []types.Stage, t types.StageType) types.Stage {
	for _, st := range stages {
		if st.Type == t {
			return st
		}
	}
	panic("no stage of type " + string(t))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
