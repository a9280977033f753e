package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/internal/cache"
	"github.com/kiranshivaraju/remixer/internal/events"
	"github.com/kiranshivaraju/remixer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Cache ---

type published struct {
	channel string
	payload []byte
}

type mockCache struct {
	mu        sync.Mutex
	values    map[string][]byte
	statuses  map[string]string
	published []published
	sub       *mockSubscription
	err       error
}

func newMockCache() *mockCache {
	return &mockCache{values: map[string][]byte{}, statuses: map[string]string{}}
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return m.err
}
func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}
func (m *mockCache) Delete(_ context.Context, _ string) error { return nil }
func (m *mockCache) Ping(_ context.Context) error             { return nil }
func (m *mockCache) SetJobStatus(_ context.Context, sessionID, jobID, status string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[cache.JobStatusKey(sessionID, jobID)] = status
	return m.err
}
func (m *mockCache) GetJobStatus(_ context.Context, sessionID, jobID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[cache.JobStatusKey(sessionID, jobID)]
	return s, ok, nil
}
func (m *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}
func (m *mockCache) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{channel, payload})
	return m.err
}
func (m *mockCache) Subscribe(_ context.Context, _ string) (cache.Subscription, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sub, nil
}

type mockSubscription struct {
	ch     chan []byte
	closed bool
}

func (s *mockSubscription) Messages() <-chan []byte { return s.ch }
func (s *mockSubscription) Close() error {
	s.closed = true
	return nil
}

func decode(t *testing.T, payload []byte) events.Event {
	t.Helper()
	var ev events.Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

// --- Publisher ---

func TestPublisher_JobUpdated(t *testing.T) {
	c := newMockCache()
	p := events.NewPublisher(c, "s1", nil)

	p.JobUpdated(models.Job{ID: "100-1", Preset: models.Preset{ID: 1, Name: "Noir"}, Status: models.JobStatusGenerating})

	status, found, _ := c.GetJobStatus(context.Background(), "s1", "100-1")
	assert.True(t, found)
	assert.Equal(t, "generating", status)

	require.Len(t, c.published, 1)
	assert.Equal(t, "remix:events:s1", c.published[0].channel)

	ev := decode(t, c.published[0].payload)
	assert.Equal(t, events.TypeJob, ev.Type)
	assert.Equal(t, "s1", ev.SessionID)
	require.NotNil(t, ev.Job)
	assert.Equal(t, "100-1", ev.Job.ID)
	assert.Equal(t, models.JobStatusGenerating, ev.Job.Status)
	assert.Nil(t, ev.State)
	assert.False(t, ev.At.IsZero())
}

func TestPublisher_BatchFinished(t *testing.T) {
	c := newMockCache()
	p := events.NewPublisher(c, "s1", nil)

	state := batch.State{
		Jobs:     []models.Job{{ID: "100-1", Status: models.JobStatusError}},
		Error:    `Failed to generate image for "Noir". Please try again.`,
		Progress: batch.Progress{Total: 1, Completed: 1},
	}
	p.BatchFinished(state)

	require.Len(t, c.published, 1)
	ev := decode(t, c.published[0].payload)
	assert.Equal(t, events.TypeBatchFinished, ev.Type)
	require.NotNil(t, ev.State)
	assert.Equal(t, state.Error, ev.State.Error)
	assert.Equal(t, state.Progress, ev.State.Progress)
	assert.False(t, ev.State.Busy)
}

func TestPublisher_CacheErrorsAreSwallowed(t *testing.T) {
	c := newMockCache()
	c.err = errors.New("redis down")
	p := events.NewPublisher(c, "s1", nil)

	assert.NotPanics(t, func() {
		p.JobUpdated(models.Job{ID: "1-1", Status: models.JobStatusDone})
		p.BatchFinished(batch.State{})
	})
}

// --- Stream ---

func TestStream_ForwardsUntilClosed(t *testing.T) {
	c := newMockCache()
	c.sub = &mockSubscription{ch: make(chan []byte, 2)}
	c.sub.ch <- []byte("one")
	c.sub.ch <- []byte("two")
	close(c.sub.ch)

	var got []string
	err := events.Stream(context.Background(), c, "s1", nil, func(b []byte) error {
		got = append(got, string(b))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
	assert.True(t, c.sub.closed)
}

func TestStream_StopsOnSendError(t *testing.T) {
	c := newMockCache()
	c.sub = &mockSubscription{ch: make(chan []byte, 1)}
	c.sub.ch <- []byte("one")

	sendErr := errors.New("client gone")
	err := events.Stream(context.Background(), c, "s1", nil, func([]byte) error { return sendErr })
	assert.ErrorIs(t, err, sendErr)
}

func TestStream_StopsOnContext(t *testing.T) {
	c := newMockCache()
	c.sub = &mockSubscription{ch: make(chan []byte)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := events.Stream(ctx, c, "s1", nil, func([]byte) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStream_SubscribeError(t *testing.T) {
	c := newMockCache()
	c.err = errors.New("redis down")
	err := events.Stream(context.Background(), c, "s1", nil, func([]byte) error { return nil })
	require.Error(t, err)
}

func TestStream_SendsSnapshotFirst(t *testing.T) {
	c := newMockCache()
	c.sub = &mockSubscription{ch: make(chan []byte, 1)}
	c.sub.ch <- []byte("live")
	close(c.sub.ch)

	state := batch.State{Busy: true, Progress: batch.Progress{Total: 2, Current: "Film Noir"}}
	var got [][]byte
	err := events.Stream(context.Background(), c, "s1", func() ([]byte, error) {
		return events.Snapshot("s1", state)
	}, func(b []byte) error {
		got = append(got, b)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "live", string(got[1]))

	var ev events.Event
	require.NoError(t, json.Unmarshal(got[0], &ev))
	assert.Equal(t, events.TypeSnapshot, ev.Type)
	assert.Equal(t, "s1", ev.SessionID)
	require.NotNil(t, ev.State)
	assert.Equal(t, "Film Noir", ev.State.Progress.Current)
}

func TestStream_SnapshotError(t *testing.T) {
	c := newMockCache()
	c.sub = &mockSubscription{ch: make(chan []byte)}
	err := events.Stream(context.Background(), c, "s1", func() ([]byte, error) {
		return nil, errors.New("encode")
	}, func([]byte) error { return nil })
	require.Error(t, err)
	assert.True(t, c.sub.closed)
}

// --- Wired into a controller ---

func TestPublisher_AsControllerObserver(t *testing.T) {
	c := newMockCache()
	p := events.NewPublisher(c, "s1", nil)

	var obs batch.Observer = p
	obs.JobUpdated(models.Job{ID: "1-1", Status: models.JobStatusPending})
	obs.JobUpdated(models.Job{ID: "1-1", Status: models.JobStatusDone})
	obs.BatchFinished(batch.State{Progress: batch.Progress{Total: 1, Completed: 1}})

	assert.Len(t, c.published, 3)
	status, _, _ := c.GetJobStatus(context.Background(), "s1", "1-1")
	assert.Equal(t, "done", status)
}
