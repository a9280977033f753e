package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/remixer/internal/ai"
	"github.com/kiranshivaraju/remixer/internal/ai/mock"
	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	presetA = models.Preset{ID: 1, Name: "Film Noir", Prompt: "noir prompt", Tags: []string{"cinematic"}}
	presetB = models.Preset{ID: 2, Name: "Pixel Art", Prompt: "pixel prompt", Tags: []string{"retro"}}
	presetC = models.Preset{ID: 3, Name: "Cyberpunk", Prompt: "cyber prompt", Tags: []string{"neon"}}

	source = models.Image{MIMEType: "image/jpeg", Data: []byte("original-photo")}
)

// recorder is an Observer that keeps every notification.
type recorder struct {
	mu       sync.Mutex
	updates  []models.Job
	finished []State
}

func (r *recorder) JobUpdated(job models.Job) {
	r.mu.Lock()
	r.updates = append(r.updates, job)
	r.mu.Unlock()
}

func (r *recorder) BatchFinished(state State) {
	r.mu.Lock()
	r.finished = append(r.finished, state)
	r.mu.Unlock()
}

func (r *recorder) finishedStates() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.finished...)
}

type fixture struct {
	ctrl     *Controller
	provider *mock.MockProvider
	results  *results.Memory
	observer *recorder
}

func newFixture(t *testing.T, provider *mock.MockProvider, opts Options) *fixture {
	t.Helper()
	rec := &recorder{}
	if opts.Observer == nil {
		opts.Observer = rec
	}
	mem := results.NewMemory()
	return &fixture{
		ctrl:     New(context.Background(), provider, mem, opts),
		provider: provider,
		results:  mem,
		observer: rec,
	}
}

// hold replaces the goroutine launch so the test decides when the batch runs.
func (f *fixture) hold() func() {
	var run func()
	f.ctrl.launch = func(r func()) { run = r }
	return func() { run() }
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.ctrl.Wait(ctx))
}

func (f *fixture) resultIDs(t *testing.T) []string {
	t.Helper()
	list, err := f.results.List(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	return ids
}

func statuses(jobs []models.Job) []models.JobStatus {
	out := make([]models.JobStatus, len(jobs))
	for i, j := range jobs {
		out[i] = j.Status
	}
	return out
}

// gated returns a provider whose call for prompt blocks until release is
// closed. entered is closed when that call begins.
func gated(prompt string) (p *mock.MockProvider, entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	p = mock.NewMockProvider()
	inner := p.TransformFunc
	p.TransformFunc = func(ctx context.Context, req models.TransformRequest) (models.Image, error) {
		if req.Prompt == prompt {
			close(entered)
			<-release
		}
		return inner(ctx, req)
	}
	return p, entered, release
}

func failOn(prompt string) *mock.MockProvider {
	p := mock.NewMockProvider()
	inner := p.TransformFunc
	p.TransformFunc = func(ctx context.Context, req models.TransformRequest) (models.Image, error) {
		if req.Prompt == prompt {
			return models.Image{}, models.NewTransformError("mock", ai.ErrProviderUnavailable)
		}
		return inner(ctx, req)
	}
	return p
}

// --- StartBatch ---

func TestStartBatch_OneJobPerPresetWithUniqueIDs(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	run := f.hold()

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB, presetC}, models.AspectPortrait))

	state := f.ctrl.Snapshot()
	require.Len(t, state.Jobs, 3)
	assert.True(t, state.Busy)
	assert.Equal(t, []models.JobStatus{models.JobStatusPending, models.JobStatusPending, models.JobStatusPending}, statuses(state.Jobs))

	seen := map[string]bool{}
	for i, j := range state.Jobs {
		assert.False(t, seen[j.ID], "duplicate job id %s", j.ID)
		seen[j.ID] = true
		assert.Equal(t, []models.Preset{presetA, presetB, presetC}[i], j.Preset)
		assert.Equal(t, models.AspectPortrait, j.AspectRatio)
	}

	run()
	assert.False(t, f.ctrl.Busy())
}

func TestStartBatch_AllSucceed(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB, presetC}, models.AspectSquare))
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusDone, models.JobStatusDone, models.JobStatusDone}, statuses(state.Jobs))
	assert.Empty(t, state.Error)
	assert.False(t, state.Busy)
	assert.Equal(t, Progress{Total: 3, Completed: 3}, state.Progress)

	// Newest first means reverse submission order.
	assert.Equal(t, []string{state.Jobs[2].ID, state.Jobs[1].ID, state.Jobs[0].ID}, f.resultIDs(t))

	calls := f.provider.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"noir prompt", "pixel prompt", "cyber prompt"},
		[]string{calls[0].Prompt, calls[1].Prompt, calls[2].Prompt})
	for _, c := range calls {
		assert.Equal(t, source, c.Source)
		assert.Equal(t, models.AspectSquare, c.AspectRatio)
	}
}

func TestStartBatch_TwoPresetScenario(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	f.wait(t)

	list, err := f.results.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, presetB, list[0].Preset)
	assert.Equal(t, presetA, list[1].Preset)
	assert.Equal(t, "remix:pixel prompt", string(list[0].Image.Data))
	assert.Equal(t, source, list[0].OriginalImage)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusDone, models.JobStatusDone}, statuses(state.Jobs))
	assert.Empty(t, state.Error)
}

func TestStartBatch_ResultIDMatchesJobID(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectWide))
	f.wait(t)

	job := f.ctrl.Snapshot().Jobs[0]
	r, err := f.results.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AspectWide, r.AspectRatio)
}

func TestStartBatch_FailureHaltsBatch(t *testing.T) {
	f := newFixture(t, failOn(presetB.Prompt), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB, presetC}, models.AspectSquare))
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, models.JobStatusDone, state.Jobs[0].Status)
	assert.Equal(t, models.JobStatusError, state.Jobs[1].Status)
	// Jobs after the failure are never attempted and never left pending.
	assert.Equal(t, models.JobStatusError, state.Jobs[2].Status)
	assert.False(t, state.Busy)

	assert.Equal(t, `Failed to generate image for "Pixel Art". Please try again.`, state.Error)
	assert.Equal(t, 2, f.provider.CallCount())
	assert.Equal(t, []string{state.Jobs[0].ID}, f.resultIDs(t))
}

func TestStartBatch_FailureOnFirstJob(t *testing.T) {
	f := newFixture(t, mock.NewFailingProvider(errors.New("boom")), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Contains(t, state.Error, "Film Noir")
	assert.Equal(t, 1, f.provider.CallCount())
	assert.Empty(t, f.resultIDs(t))
}

func TestStartBatch_ErrorClearedOnNextBatch(t *testing.T) {
	p := failOn(presetA.Prompt)
	f := newFixture(t, p, Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	f.wait(t)
	require.NotEmpty(t, f.ctrl.Snapshot().Error)

	run := f.hold()
	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetB}, models.AspectSquare))
	assert.Empty(t, f.ctrl.Snapshot().Error)
	run()
	assert.Empty(t, f.ctrl.Snapshot().Error)
}

func TestStartBatch_Preconditions(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})

	assert.False(t, f.ctrl.StartBatch(models.Image{}, []models.Preset{presetA}, models.AspectSquare), "no image")
	assert.False(t, f.ctrl.StartBatch(source, nil, models.AspectSquare), "no presets")
	assert.Empty(t, f.ctrl.Snapshot().Jobs)
	assert.Zero(t, f.provider.CallCount())
}

func TestStartBatch_RejectedWhileBusy(t *testing.T) {
	p, entered, release := gated(presetA.Prompt)
	f := newFixture(t, p, Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	<-entered

	assert.False(t, f.ctrl.StartBatch(source, []models.Preset{presetB}, models.AspectSquare))
	assert.False(t, f.ctrl.Regenerate(models.GeneratedResult{Preset: presetC, OriginalImage: source}))

	close(release)
	f.wait(t)

	state := f.ctrl.Snapshot()
	require.Len(t, state.Jobs, 1)
	assert.Equal(t, presetA, state.Jobs[0].Preset)
	assert.Equal(t, 1, f.provider.CallCount())
}

func TestStartBatch_DuplicatePresetsCollapse(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetB, presetA, presetB}, models.AspectSquare))
	f.wait(t)

	state := f.ctrl.Snapshot()
	require.Len(t, state.Jobs, 2)
	assert.Equal(t, presetB, state.Jobs[0].Preset)
	assert.Equal(t, presetA, state.Jobs[1].Preset)
}

func TestJobIDs_UniqueAcrossRunsWithFrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	f := newFixture(t, mock.NewMockProvider(), Options{Now: func() time.Time { return frozen }})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	f.wait(t)
	first := f.ctrl.Snapshot().Jobs[0].ID

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	f.wait(t)
	second := f.ctrl.Snapshot().Jobs[0].ID

	assert.Equal(t, "1700000000000-1", first)
	assert.Equal(t, "1700000000001-1", second)
	assert.Len(t, f.resultIDs(t), 2)
}

// --- Cancel ---

func TestCancel_BeforeFirstJob(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	run := f.hold()

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	f.ctrl.Cancel()
	run()

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Empty(t, state.Error, "cancellation is not reported as a failure")
	assert.False(t, state.Busy)
	assert.Zero(t, f.provider.CallCount())
	assert.Empty(t, f.resultIDs(t))
}

func TestCancel_DuringFirstCallDiscardsOutput(t *testing.T) {
	p, entered, release := gated(presetA.Prompt)
	f := newFixture(t, p, Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB, presetC}, models.AspectSquare))
	<-entered
	f.ctrl.Cancel()
	close(release)
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Empty(t, state.Error)
	assert.Equal(t, 1, p.CallCount(), "no job starts after cancellation")
	assert.Empty(t, f.resultIDs(t), "in-flight output is discarded")
}

func TestCancel_DuringFailingCallKeepsFailureMessage(t *testing.T) {
	p, entered, release := gated(presetA.Prompt)
	inner := p.TransformFunc
	p.TransformFunc = func(ctx context.Context, req models.TransformRequest) (models.Image, error) {
		if _, err := inner(ctx, req); err != nil {
			return models.Image{}, err
		}
		return models.Image{}, models.NewTransformError("mock", ai.ErrProviderUnavailable)
	}
	f := newFixture(t, p, Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	<-entered
	f.ctrl.Cancel()
	close(release)
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Equal(t, `Failed to generate image for "Film Noir". Please try again.`, state.Error)
	assert.Equal(t, 1, p.CallCount())
	assert.Empty(t, f.resultIDs(t))
}

func TestCancel_DuringLaterCallKeepsEarlierResults(t *testing.T) {
	p, entered, release := gated(presetB.Prompt)
	f := newFixture(t, p, Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB, presetC}, models.AspectSquare))
	<-entered

	mid := f.ctrl.Snapshot()
	assert.True(t, mid.Busy)
	assert.Equal(t, Progress{Total: 3, Completed: 1, Current: "Pixel Art"}, mid.Progress)

	f.ctrl.Cancel()
	close(release)
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusDone, models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Equal(t, 2, p.CallCount())
	assert.Equal(t, []string{state.Jobs[0].ID}, f.resultIDs(t))
}

func TestCancel_ResetByNextBatch(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	f.ctrl.Cancel()

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	f.wait(t)

	assert.Equal(t, models.JobStatusDone, f.ctrl.Snapshot().Jobs[0].Status)
}

func TestBaseContextCancelled_HaltsLikeCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := mock.NewMockProvider()
	mem := results.NewMemory()
	c := New(ctx, p, mem, Options{})
	var run func()
	c.launch = func(r func()) { run = r }

	require.True(t, c.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	cancel()
	run()

	assert.Equal(t, models.JobStatusError, c.Snapshot().Jobs[0].Status)
	assert.Empty(t, c.Snapshot().Error)
	assert.Zero(t, p.CallCount())
}

// --- Regenerate ---

func TestRegenerate_AppendsNewResult(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectLandscape))
	f.wait(t)
	prev, err := f.results.Get(context.Background(), f.ctrl.Snapshot().Jobs[0].ID)
	require.NoError(t, err)

	require.True(t, f.ctrl.Regenerate(prev))
	f.wait(t)

	state := f.ctrl.Snapshot()
	require.Len(t, state.Jobs, 1)
	assert.Equal(t, models.JobStatusDone, state.Jobs[0].Status)
	assert.NotEqual(t, prev.ID, state.Jobs[0].ID)

	list, err := f.results.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, state.Jobs[0].ID, list[0].ID)
	assert.Equal(t, prev.ID, list[1].ID)
	assert.Equal(t, prev.OriginalImage, list[0].OriginalImage)
	assert.Equal(t, presetA, list[0].Preset)
	assert.Equal(t, models.AspectLandscape, list[0].AspectRatio)

	last := f.provider.Calls()[1]
	assert.Equal(t, presetA.Prompt, last.Prompt)
	assert.Equal(t, source, last.Source)
	assert.Equal(t, models.AspectLandscape, last.AspectRatio)
}

func TestRegenerate_UsesOriginalNotGeneratedImage(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	prev := models.GeneratedResult{
		ID:            "1-3",
		Image:         models.Image{MIMEType: "image/png", Data: []byte("generated")},
		Preset:        presetC,
		AspectRatio:   models.AspectStory,
		OriginalImage: source,
	}

	require.True(t, f.ctrl.Regenerate(prev))
	f.wait(t)

	calls := f.provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, source, calls[0].Source)
}

func TestRegenerate_Failure(t *testing.T) {
	f := newFixture(t, mock.NewFailingProvider(ai.ErrNoImage), Options{})

	require.True(t, f.ctrl.Regenerate(models.GeneratedResult{ID: "x", Preset: presetB, OriginalImage: source}))
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, models.JobStatusError, state.Jobs[0].Status)
	assert.Equal(t, `Failed to generate image for "Pixel Art". Please try again.`, state.Error)
	assert.Empty(t, f.resultIDs(t))
}

func TestRegenerate_WithoutOriginalIsNoop(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	assert.False(t, f.ctrl.Regenerate(models.GeneratedResult{ID: "x", Preset: presetA}))
	assert.Empty(t, f.ctrl.Snapshot().Jobs)
}

// --- Timeout ---

func TestTimeout_FailsJob(t *testing.T) {
	f := newFixture(t, mock.NewTimeoutProvider(), Options{Timeout: 20 * time.Millisecond})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	f.wait(t)

	state := f.ctrl.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Contains(t, state.Error, "Film Noir")
}

// --- Observer ---

func TestObserver_SeesEveryTransition(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	f.wait(t)

	f.observer.mu.Lock()
	var got []models.JobStatus
	for _, u := range f.observer.updates {
		if u.Preset.ID == presetA.ID {
			got = append(got, u.Status)
		}
	}
	f.observer.mu.Unlock()
	assert.Equal(t, []models.JobStatus{models.JobStatusPending, models.JobStatusGenerating, models.JobStatusDone}, got)

	finished := f.observer.finishedStates()
	require.Len(t, finished, 1)
	assert.False(t, finished[0].Busy)
	assert.Equal(t, 2, finished[0].Progress.Completed)
}

func TestObserver_FinishedOnFailure(t *testing.T) {
	f := newFixture(t, failOn(presetA.Prompt), Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	f.wait(t)

	finished := f.observer.finishedStates()
	require.Len(t, finished, 1)
	assert.NotEmpty(t, finished[0].Error)
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError}, statuses(finished[0].Jobs))
}

func TestObserverFunc_SeesJobUpdates(t *testing.T) {
	var fn []models.JobStatus
	obs := ObserverFunc(func(j models.Job) { fn = append(fn, j.Status) })

	f := newFixture(t, mock.NewMockProvider(), Options{Observer: obs})
	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	f.wait(t)

	assert.Equal(t, []models.JobStatus{models.JobStatusPending, models.JobStatusGenerating, models.JobStatusDone}, fn)
}

// restarter tries to start a new batch as soon as it sees the last job settle.
type restarter struct {
	recorder
	ctrl         *Controller
	accepted     []bool
	busy         []bool
	snapshotBusy bool
}

func (r *restarter) JobUpdated(job models.Job) {
	r.recorder.JobUpdated(job)
	if job.Status == models.JobStatusDone && job.Preset.ID == presetA.ID {
		r.busy = append(r.busy, r.ctrl.Busy())
		r.snapshotBusy = r.ctrl.Snapshot().Busy
		r.accepted = append(r.accepted, r.ctrl.StartBatch(source, []models.Preset{presetB}, models.AspectSquare))
	}
}

func TestStartBatch_RejectedUntilFinishedIsDelivered(t *testing.T) {
	obs := &restarter{}
	f := newFixture(t, mock.NewMockProvider(), Options{Observer: obs})
	obs.ctrl = f.ctrl

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	f.wait(t)

	assert.Equal(t, []bool{true}, obs.busy)
	assert.Equal(t, []bool{false}, obs.accepted)
	assert.True(t, obs.snapshotBusy)
	assert.False(t, f.ctrl.Busy())

	finished := obs.finishedStates()
	require.Len(t, finished, 1)
	require.Len(t, finished[0].Jobs, 1)
	assert.Equal(t, presetA, finished[0].Jobs[0].Preset)

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetB}, models.AspectSquare))
	f.wait(t)
	assert.Equal(t, presetB, f.ctrl.Snapshot().Jobs[0].Preset)
}

// --- Result store failure ---

type failingCollection struct{ results.Collection }

func (failingCollection) Append(context.Context, models.GeneratedResult) error {
	return errors.New("disk full")
}

func TestAppendFailure_TreatedAsJobFailure(t *testing.T) {
	p := mock.NewMockProvider()
	c := New(context.Background(), p, failingCollection{results.NewMemory()}, Options{})

	require.True(t, c.StartBatch(source, []models.Preset{presetA, presetB}, models.AspectSquare))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	state := c.Snapshot()
	assert.Equal(t, []models.JobStatus{models.JobStatusError, models.JobStatusError}, statuses(state.Jobs))
	assert.Contains(t, state.Error, "Film Noir")
	assert.Equal(t, 1, p.CallCount())
}

// --- Wait ---

func TestWait_NoBatch(t *testing.T) {
	f := newFixture(t, mock.NewMockProvider(), Options{})
	assert.NoError(t, f.ctrl.Wait(context.Background()))
}

func TestWait_ContextExpires(t *testing.T) {
	p, entered, release := gated(presetA.Prompt)
	defer close(release)
	f := newFixture(t, p, Options{})

	require.True(t, f.ctrl.StartBatch(source, []models.Preset{presetA}, models.AspectSquare))
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.ctrl.Wait(ctx), context.DeadlineExceeded)
}
