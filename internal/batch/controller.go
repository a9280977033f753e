// Package batch runs remix jobs one at a time against an image transformer,
// tracking per-job status and honouring cooperative cancellation.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

// Options configures a Controller. The zero value is usable.
type Options struct {
	Observer Observer
	// Timeout bounds each remote call. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

// Controller owns the job list, error message and cancellation flag of one
// session. At most one batch runs at a time.
type Controller struct {
	transformer models.ImageTransformer
	results     results.Collection
	observer    Observer
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
	base        context.Context
	launch      func(run func())

	cancelled atomic.Bool

	mu        sync.Mutex
	jobs      []models.Job
	errMsg    string
	done      chan struct{}
	running   bool
	lastStamp int64
}

// New returns a Controller. ctx bounds every batch the controller runs; when
// it is cancelled, running batches halt at the next job boundary.
func New(ctx context.Context, t models.ImageTransformer, rc results.Collection, opts Options) *Controller {
	c := &Controller{
		transformer: t,
		results:     rc,
		observer:    opts.Observer,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
		now:         opts.Now,
		base:        ctx,
		launch:      func(run func()) { go run() },
	}
	if c.observer == nil {
		c.observer = NopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// StartBatch queues one job per preset and starts processing them in order.
// It is a no-op returning false when the source is empty, no presets are
// given, or a batch is already running. Repeated preset IDs collapse to
// their first occurrence.
func (c *Controller) StartBatch(source models.Image, presets []models.Preset, ratio models.AspectRatio) bool {
	if source.Empty() || len(presets) == 0 {
		return false
	}
	return c.start(source, dedupe(presets), ratio)
}

// Regenerate re-runs prev's preset against prev's original image and aspect
// ratio as a single-job batch. The previous result is kept; success appends
// a new one with a new ID.
func (c *Controller) Regenerate(prev models.GeneratedResult) bool {
	if prev.OriginalImage.Empty() {
		return false
	}
	return c.start(prev.OriginalImage, []models.Preset{prev.Preset}, prev.AspectRatio)
}

// Cancel asks the running batch to stop. A remote call already in flight is
// not interrupted; the batch halts once it returns and its output is dropped.
func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

// Busy reports whether a batch is still running. A batch stays busy until its
// observer has been told it finished, even once every job has settled.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyLocked()
}

// Snapshot returns a copy of the current batch state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := newState(c.jobs, c.errMsg)
	s.Busy = s.Busy || c.running
	return s
}

// Results exposes the collection completed jobs are appended to.
func (c *Controller) Results() results.Collection {
	return c.results
}

// Wait blocks until the current batch, if any, has finished.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) busyLocked() bool {
	if c.running {
		return true
	}
	for _, j := range c.jobs {
		if j.Status.Active() {
			return true
		}
	}
	return false
}

func (c *Controller) start(source models.Image, presets []models.Preset, ratio models.AspectRatio) bool {
	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return false
	}

	c.errMsg = ""
	c.cancelled.Store(false)

	now := c.now()
	stamp := c.nextStamp()
	jobs := make([]models.Job, len(presets))
	for i, p := range presets {
		jobs[i] = models.Job{
			ID:          jobID(stamp, p.ID),
			Preset:      p,
			Source:      source,
			AspectRatio: ratio,
			Status:      models.JobStatusPending,
			UpdatedAt:   now,
		}
	}
	c.jobs = jobs
	done := make(chan struct{})
	c.done = done
	c.running = true
	c.mu.Unlock()

	c.logger.Info("batch started", "jobs", len(jobs), "aspect_ratio", ratio, "provider", c.transformer.Name())
	for _, j := range jobs {
		c.observer.JobUpdated(j)
	}

	c.launch(func() {
		defer close(done)
		c.run(jobs)

		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	})
	return true
}

// run processes jobs strictly in order. Any halt, whether from a failure or
// from cancellation, marks every unfinished job as error. A failed call
// records its message even when cancellation was requested meanwhile.
func (c *Controller) run(jobs []models.Job) {
	started := c.now()
	var last State
	for i, job := range jobs {
		if c.stopRequested() {
			c.logger.Info("batch cancelled", "job_id", job.ID, "remaining", len(jobs)-i)
			c.halt(i, "")
			return
		}

		c.setStatus(i, models.JobStatusGenerating)

		img, err := c.transform(job)
		if err != nil {
			c.logger.Error("job failed", "job_id", job.ID, "preset", job.Preset.Name, "error", err)
			c.halt(i, failureMessage(job.Preset))
			return
		}

		if c.stopRequested() {
			c.logger.Info("batch cancelled during remote call, discarding output", "job_id", job.ID, "preset", job.Preset.Name)
			c.halt(i, "")
			return
		}

		err = c.results.Append(c.base, models.GeneratedResult{
			ID:            job.ID,
			Image:         img,
			Preset:        job.Preset,
			AspectRatio:   job.AspectRatio,
			OriginalImage: job.Source,
			CreatedAt:     c.now(),
		})
		if err != nil {
			c.logger.Error("job failed", "job_id", job.ID, "preset", job.Preset.Name, "error", err)
			c.halt(i, failureMessage(job.Preset))
			return
		}

		last = c.setStatus(i, models.JobStatusDone)
	}

	c.logger.Info("batch completed", "jobs", len(jobs), "duration_ms", c.now().Sub(started).Milliseconds())
	c.observer.BatchFinished(last)
}

func (c *Controller) transform(job models.Job) (models.Image, error) {
	ctx := c.base
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.transformer.Transform(ctx, models.TransformRequest{
		Source:      job.Source,
		Prompt:      job.Preset.Prompt,
		AspectRatio: job.AspectRatio,
	})
}

func (c *Controller) stopRequested() bool {
	return c.cancelled.Load() || c.base.Err() != nil
}

// setStatus updates job i and returns the state right after the change.
func (c *Controller) setStatus(i int, status models.JobStatus) State {
	c.mu.Lock()
	c.jobs[i].Status = status
	c.jobs[i].UpdatedAt = c.now()
	job := c.jobs[i]
	state := newState(c.jobs, c.errMsg)
	c.mu.Unlock()

	c.observer.JobUpdated(job)
	return state
}

// halt marks job i and every later unfinished job as error and records msg.
// An empty msg means the halt was a cancellation.
func (c *Controller) halt(i int, msg string) {
	c.mu.Lock()
	now := c.now()
	var changed []models.Job
	for k := i; k < len(c.jobs); k++ {
		if c.jobs[k].Status.Active() {
			c.jobs[k].Status = models.JobStatusError
			c.jobs[k].UpdatedAt = now
			changed = append(changed, c.jobs[k])
		}
	}
	if msg != "" {
		c.errMsg = msg
	}
	state := newState(c.jobs, c.errMsg)
	c.mu.Unlock()

	for _, j := range changed {
		c.observer.JobUpdated(j)
	}
	c.observer.BatchFinished(state)
}

func failureMessage(p models.Preset) string {
	return fmt.Sprintf("Failed to generate image for %q. Please try again.", p.Name)
}

func dedupe(presets []models.Preset) []models.Preset {
	seen := make(map[int]bool, len(presets))
	out := make([]models.Preset, 0, len(presets))
	for _, p := range presets {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
