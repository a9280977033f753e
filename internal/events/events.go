// Package events publishes batch progress to Redis so any server instance
// can stream it to the browser.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/internal/cache"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

const (
	TypeSnapshot      = "snapshot"
	TypeJob           = "job"
	TypeBatchFinished = "batch_finished"

	statusTTL      = time.Hour
	publishTimeout = 2 * time.Second
)

// Event is the JSON payload sent on a session's events channel.
type Event struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id"`
	Job       *models.Job  `json:"job,omitempty"`
	State     *batch.State `json:"state,omitempty"`
	At        time.Time    `json:"at"`
}

// Publisher is a batch.Observer that mirrors job status into Redis and
// publishes every change. Failures are logged, never returned: progress
// reporting must not affect the batch.
type Publisher struct {
	cache     cache.Cache
	sessionID string
	logger    *slog.Logger
	now       func() time.Time
}

func NewPublisher(c cache.Cache, sessionID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		cache:     c,
		sessionID: sessionID,
		logger:    logger.With("session_id", sessionID),
		now:       time.Now,
	}
}

func (p *Publisher) JobUpdated(job models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.cache.SetJobStatus(ctx, p.sessionID, job.ID, string(job.Status), statusTTL); err != nil {
		p.logger.Warn("set job status", "job_id", job.ID, "error", err)
	}
	p.publish(ctx, Event{Type: TypeJob, Job: &job})
}

func (p *Publisher) BatchFinished(state batch.State) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.publish(ctx, Event{Type: TypeBatchFinished, State: &state})
}

func (p *Publisher) publish(ctx context.Context, ev Event) {
	ev.SessionID = p.sessionID
	ev.At = p.now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal event", "type", ev.Type, "error", err)
		return
	}
	if err := p.cache.Publish(ctx, cache.EventsChannel(p.sessionID), data); err != nil {
		p.logger.Warn("publish event", "type", ev.Type, "error", err)
	}
}

// Snapshot encodes the event a new listener receives before any live updates.
func Snapshot(sessionID string, state batch.State) ([]byte, error) {
	return json.Marshal(Event{Type: TypeSnapshot, SessionID: sessionID, State: &state, At: time.Now().UTC()})
}

// Stream forwards every raw event payload for sessionID to send until ctx is
// done, the subscription ends, or send fails. When first is non-nil its
// payload is sent once the subscription is live, so no update published in
// between is lost.
func Stream(ctx context.Context, c cache.Cache, sessionID string, first func() ([]byte, error), send func([]byte) error) error {
	sub, err := c.Subscribe(ctx, cache.EventsChannel(sessionID))
	if err != nil {
		return err
	}
	defer sub.Close()

	if first != nil {
		msg, err := first()
		if err != nil {
			return fmt.Errorf("initial event: %w", err)
		}
		if err := send(msg); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if err := send(msg); err != nil {
				return err
			}
		}
	}
}

var _ batch.Observer = (*Publisher)(nil)
