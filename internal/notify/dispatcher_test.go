package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink records deliveries and fails the first failures calls.
type recordingSink struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []uuid.UUID
	block    chan struct{}
}

func (s *recordingSink) Notify(ctx context.Context, managerID uuid.UUID, _ types.StageNotice) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("sink unavailable")
	}
	s.got = append(s.got, managerID)
	return nil
}

func (s *recordingSink) delivered() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.got...)
}

func fastConfig() Config {
	return Config{Workers: 2, QueueSize: 16, MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
}

func TestDispatcher_FansOutPerManager(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, fastConfig())
	d.Start(context.Background())

	managers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	d.StageChanged(types.StageNotice{ManagerIDs: managers, ApplicationID: uuid.New(), ToStageName: "Interview"})
	require.NoError(t, d.Close())

	assert.ElementsMatch(t, managers, sink.delivered())
	assert.Equal(t, Stats{Delivered: 3}, d.Stats())
}

func TestDispatcher_RetriesThenDelivers(t *testing.T) {
	sink := &recordingSink{failures: 2}
	d := NewDispatcher(sink, fastConfig())
	d.Start(context.Background())

	d.Enqueue(uuid.New(), types.StageNotice{ApplicationID: uuid.New()})
	require.NoError(t, d.Close())

	assert.Len(t, sink.delivered(), 1)
	assert.Equal(t, 3, sink.calls)
	assert.Equal(t, int64(1), d.Stats().Delivered)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	sink := &recordingSink{failures: 100}
	d := NewDispatcher(sink, fastConfig())
	d.Start(context.Background())

	d.Enqueue(uuid.New(), types.StageNotice{ApplicationID: uuid.New()})
	require.NoError(t, d.Close())

	assert.Empty(t, sink.delivered())
	assert.Equal(t, 3, sink.calls)
	assert.Equal(t, Stats{Failed: 1}, d.Stats())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	cfg := fastConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	d := NewDispatcher(sink, cfg)

	// Without workers nothing drains the queue.
	assert.True(t, d.Enqueue(uuid.New(), types.StageNotice{}))
	assert.False(t, d.Enqueue(uuid.New(), types.StageNotice{}))
	assert.Equal(t, int64(1), d.Stats().Dropped)

	close(sink.block)
	d.Start(context.Background())
	require.NoError(t, d.Close())
	assert.Len(t, sink.delivered(), 1)
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, fastConfig())
	d.Start(context.Background())

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.False(t, d.Enqueue(uuid.New(), types.StageNotice{}), "enqueue after close is dropped")
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 500 * time.Millisecond},
		{10, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(100*time.Millisecond, 500*time.Millisecond, tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestWebhookSink(t *testing.T) {
	managerID := uuid.New()
	appID := uuid.New()

	t.Run("posts json", func(t *testing.T) {
		var got WebhookPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		sink := NewWebhookSink(srv.URL)
		err := sink.Notify(context.Background(), managerID, types.StageNotice{ApplicationID: appID, ToStageName: "Interview"})
		require.NoError(t, err)
		assert.Equal(t, managerID, got.ManagerID)
		assert.Equal(t, appID, got.Notice.ApplicationID)
		assert.Equal(t, "Interview", got.Notice.ToStageName)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		err := NewWebhookSink(srv.URL).Notify(context.Background(), managerID, types.StageNotice{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	failing := &recordingSink{failures: 1}
	ok := &recordingSink{}
	err := MultiSink{failing, ok, LogSink{}}.Notify(context.Background(), uuid.New(), types.StageNotice{})
	require.Error(t, err)
	assert.Len(t, ok.delivered(), 1, "later sinks still run")
}
