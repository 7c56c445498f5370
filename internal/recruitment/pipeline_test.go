package recruitment_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveStage(t *testing.T) {
	f := newFixture(t)
	r, stages := f.newRecruitment(t, "Backend Engineer")
	shortlisted := stageOf(stages, types.StageShortlisted)

	other := f.apply(t, "bob@x.com", r.ID)
	_, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: other.ID, TargetStageID: shortlisted.ID, Actor: f.actor})
	require.NoError(t, err)

	app := f.apply(t, "jane@x.com", r.ID)
	_, err = f.svc.StartOnboarding(f.ctx, f.actor, app.ID)
	require.NoError(t, err)

	moved, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: app.ID, TargetStageID: shortlisted.ID, Actor: f.actor})
	require.NoError(t, err)
	assert.Equal(t, shortlisted.ID, moved.StageID)
	assert.Equal(t, 2, moved.Sequence, "appended after the existing member")
	assert.False(t, moved.StartOnboard, "stage move resets onboarding")

	t.Run("backward move is allowed", func(t *testing.T) {
		back, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: app.ID, TargetStageID: stages[0].ID, Actor: f.actor})
		require.NoError(t, err)
		assert.Equal(t, stages[0].ID, back.StageID)
	})

	t.Run("audit records from and to", func(t *testing.T) {
		entries, err := f.svc.CollectHistory(f.ctx, types.EntityApplication, app.ID)
		require.NoError(t, err)
		var moves []types.AuditEntry
		for _, e := range entries {
			if e.Action == types.ActionStageChange {
				moves = append(moves, e)
			}
		}
		require.Len(t, moves, 2)
		assert.Equal(t, stages[0].ID, *moves[0].FromStageID)
		assert.Equal(t, shortlisted.ID, *moves[0].ToStageID)
		assert.Equal(t, f.actor.ID, moves[0].Actor)
	})

	t.Run("managers are notified", func(t *testing.T) {
		notices := f.notifier.all()
		require.Len(t, notices, 3)
		last := notices[2]
		assert.Equal(t, app.ID, last.ApplicationID)
		assert.Equal(t, shortlisted.ID, last.FromStageID)
		assert.Equal(t, stages[0].ID, last.ToStageID)
		assert.Equal(t, []uuid.UUID{f.manager}, last.ManagerIDs)
	})
}

func TestMoveStage_CrossRecruitmentStage(t *testing.T) {
	f := newFixture(t)
	r1, _ := f.newRecruitment(t, "R1")
	_, stages2 := f.newRecruitment(t, "R2")
	app := f.apply(t, "jane@x.com", r1.ID)

	for _, st := range stages2 {
		_, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: app.ID, TargetStageID: st.ID, Actor: f.actor})
		var stageErr *recruitment.ErrInvalidStage
		require.True(t, errors.As(err, &stageErr), "stage %s", st.Name)
		assert.Equal(t, r1.ID, stageErr.RecruitmentID)
	}
}

func TestMoveStage_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: uuid.New(), TargetStageID: uuid.New()})
	assert.IsType(t, &recruitment.ErrNotFound{}, err)
}

func TestMarkHired(t *testing.T) {
	f := newFixture(t)
	r, stages := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	hired, err := f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, JoiningDate: date(2024, 6, 1), Actor: f.actor})
	require.NoError(t, err)
	assert.True(t, hired.Hired)
	assert.False(t, hired.Canceled)
	require.NotNil(t, hired.HiredDate)
	require.NotNil(t, hired.JoiningDate)
	assert.Equal(t, date(2024, 6, 1), *hired.JoiningDate)
	require.NotNil(t, hired.ProbationEnd)
	assert.Equal(t, date(2024, 8, 30), *hired.ProbationEnd)
	assert.Equal(t, stageOf(stages, types.StageSelected).ID, hired.StageID)
}

func TestMarkHired_RequiresJoiningDate(t *testing.T) {
	f := newFixture(t)
	r, _ := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	_, err := f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, Actor: f.actor})
	assert.IsType(t, &recruitment.ErrInvalidTransition{}, err)
}

func TestMarkCanceled(t *testing.T) {
	f := newFixture(t)
	r, stages := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	canceled, err := f.svc.MarkCanceled(f.ctx, recruitment.MarkCanceledInput{ApplicationID: app.ID, Reason: "withdrew", Actor: f.actor})
	require.NoError(t, err)
	assert.True(t, canceled.Canceled)
	assert.Equal(t, "withdrew", canceled.CancelReason)
	assert.Nil(t, canceled.HiredDate)
	assert.Nil(t, canceled.JoiningDate)
	assert.Equal(t, stageOf(stages, types.StageCancelled).ID, canceled.StageID)

	entries, err := f.svc.CollectHistory(f.ctx, types.EntityApplication, app.ID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, types.ActionCancel, last.Action)
	assert.Equal(t, "withdrew", last.Reason)
}

func TestTerminalStates(t *testing.T) {
	tests := []struct {
		name      string
		terminate func(f *fixture, id uuid.UUID) error
	}{
		{
			name: "hired",
			terminate: func(f *fixture, id uuid.UUID) error {
				_, err := f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: id, JoiningDate: date(2024, 6, 1), Actor: f.actor})
				return err
			},
		},
		{
			name: "canceled",
			terminate: func(f *fixture, id uuid.UUID) error {
				_, err := f.svc.MarkCanceled(f.ctx, recruitment.MarkCanceledInput{ApplicationID: id, Reason: "position filled", Actor: f.actor})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r, stages := f.newRecruitment(t, "Backend Engineer")
			app := f.apply(t, "jane@x.com", r.ID)
			require.NoError(t, tt.terminate(f, app.ID))
			before, err := f.svc.GetApplication(f.ctx, app.ID)
			require.NoError(t, err)

			ops := map[string]func() error{
				"move": func() error {
					_, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: app.ID, TargetStageID: stages[1].ID, Actor: f.actor})
					return err
				},
				"hire": func() error {
					_, err := f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, JoiningDate: date(2024, 7, 1), Actor: f.actor})
					return err
				},
				"cancel": func() error {
					_, err := f.svc.MarkCanceled(f.ctx, recruitment.MarkCanceledInput{ApplicationID: app.ID, Actor: f.actor})
					return err
				},
				"onboard": func() error {
					_, err := f.svc.StartOnboarding(f.ctx, f.actor, app.ID)
					return err
				},
			}
			for op, call := range ops {
				err := call()
				var terminal *recruitment.ErrTerminalState
				assert.True(t, errors.As(err, &terminal), "%s should fail with ErrTerminalState", op)
				var transition *recruitment.ErrInvalidTransition
				assert.True(t, errors.As(err, &transition), "%s should also match ErrInvalidTransition", op)
			}

			after, err := f.svc.GetApplication(f.ctx, app.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after, "rejected writes leave the record untouched")
		})
	}
}

func TestScenario_HiredThenMoveFails(t *testing.T) {
	f := newFixture(t)
	r, stages := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	_, err := f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, JoiningDate: date(2024, 6, 1), Actor: f.actor})
	require.NoError(t, err)

	for _, st := range stages {
		_, err := f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{ApplicationID: app.ID, TargetStageID: st.ID, Actor: f.actor})
		assert.Error(t, err)
	}
}

func TestMoveStage_ConcurrentWriters(t *testing.T) {
	f := newFixture(t)
	r, stages := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	targets := []uuid.UUID{stageOf(stages, types.StageShortlisted).ID, stageOf(stages, types.StageInterview).ID}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{
				ApplicationID:   app.ID,
				TargetStageID:   target,
				Actor:           f.actor,
				ExpectedVersion: app.Version,
			})
		}(i, target)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one writer may succeed")
			winner = i
			continue
		}
		var conflict *recruitment.ErrConflict
		assert.True(t, errors.As(err, &conflict), "loser gets ErrConflict, got %v", err)
	}
	require.NotEqual(t, -1, winner)

	final, err := f.svc.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, targets[winner], final.StageID)
	assert.Equal(t, app.Version+1, final.Version)
}

func TestMoveStage_ConcurrentIntoOneStage(t *testing.T) {
	f := newFixture(t, withSlowStore(20*time.Millisecond, false))
	r, stages := f.newRecruitment(t, "Backend Engineer")
	apps := []*types.Application{f.apply(t, "a@x.com", r.ID), f.apply(t, "b@x.com", r.ID)}
	interview := stageOf(stages, types.StageInterview).ID

	moved := make([]*types.Application, len(apps))
	errs := concurrently(len(apps), func(i int) error {
		var err error
		moved[i], err = f.svc.MoveStage(f.ctx, recruitment.MoveStageInput{
			ApplicationID:   apps[i].ID,
			TargetStageID:   interview,
			Actor:           f.actor,
			ExpectedVersion: apps[i].Version,
		})
		return err
	})

	seen := map[int]bool{}
	for i, err := range errs {
		require.NoError(t, err, "move %s", apps[i].Email)
		assert.Equal(t, interview, moved[i].StageID)
		seen[moved[i].Sequence] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, seen)
}

func TestStartOnboardingAndOfferStatus(t *testing.T) {
	f := newFixture(t)
	r, _ := f.newRecruitment(t, "Backend Engineer")
	app := f.apply(t, "jane@x.com", r.ID)

	onboarding, err := f.svc.StartOnboarding(f.ctx, f.actor, app.ID)
	require.NoError(t, err)
	assert.True(t, onboarding.StartOnboard)

	again, err := f.svc.StartOnboarding(f.ctx, f.actor, app.ID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.Version, again.Version, "repeat is a no-op")

	sent, err := f.svc.SetOfferLetterStatus(f.ctx, f.actor, app.ID, types.OfferSent)
	require.NoError(t, err)
	assert.Equal(t, types.OfferSent, sent.OfferLetterStatus)

	_, err = f.svc.SetOfferLetterStatus(f.ctx, f.actor, app.ID, "lost")
	assert.IsType(t, &recruitment.ErrValidation{}, err)

	_, err = f.svc.MarkHired(f.ctx, recruitment.MarkHiredInput{ApplicationID: app.ID, JoiningDate: date(2024, 6, 1), Actor: f.actor})
	require.NoError(t, err)
	joined, err := f.svc.SetOfferLetterStatus(f.ctx, f.actor, app.ID, types.OfferJoined)
	require.NoError(t, err)
	assert.Equal(t, types.OfferJoined, joined.OfferLetterStatus)

	other := f.apply(t, "bob@x.com", r.ID)
	_, err = f.svc.MarkCanceled(f.ctx, recruitment.MarkCanceledInput{ApplicationID: other.ID, Actor: f.actor})
	require.NoError(t, err)
	_, err = f.svc.SetOfferLetterStatus(f.ctx, f.actor, other.ID, types.OfferSent)
	assert.IsType(t, &recruitment.ErrInvalidTransition{}, err)
}

func TestReorderStage(t *testing.T) {
	f := newFixture(t)
	r, stages := f.newRecruitment(t, "Backend Engineer")
	first := stages[0].ID

	a := f.apply(t, "a@x.com", r.ID)
	b := f.apply(t, "b@x.com", r.ID)
	c := f.apply(t, "c@x.com", r.ID)

	require.NoError(t, f.svc.ReorderStage(f.ctx, r.ID, first, []uuid.UUID{c.ID, a.ID, b.ID}))

	for id, want := range map[uuid.UUID]int{c.ID: 1, a.ID: 2, b.ID: 3} {
		got, err := f.svc.GetApplication(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Sequence)
		assert.Equal(t, first, got.StageID)
	}

	t.Run("missing member conflicts", func(t *testing.T) {
		err := f.svc.ReorderStage(f.ctx, r.ID, first, []uuid.UUID{a.ID, b.ID})
		assert.IsType(t, &recruitment.ErrConflict{}, err)
	})

	t.Run("foreign id conflicts", func(t *testing.T) {
		err := f.svc.ReorderStage(f.ctx, r.ID, first, []uuid.UUID{a.ID, b.ID, uuid.New()})
		assert.IsType(t, &recruitment.ErrConflict{}, err)
	})

	t.Run("duplicate id is invalid", func(t *testing.T) {
		err := f.svc.ReorderStage(f.ctx, r.ID, first, []uuid.UUID{a.ID, a.ID, b.ID})
		assert.IsType(t, &recruitment.ErrValidation{}, err)
	})

	t.Run("stage of another recruitment", func(t *testing.T) {
		_, otherStages := f.newRecruitment(t, "Other")
		err := f.svc.ReorderStage(f.ctx, r.ID, otherStages[0].ID, []uuid.UUID{a.ID})
		assert.IsType(t, &recruitment.ErrInvalidStage{}, err)
	})

	t.Run("not audited", func(t *testing.T) {
		entries, err := f.svc.CollectHistory(f.ctx, types.EntityApplication, c.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
