package ai

import (
	"context"
	"time"

	"github.com/kiranshivaraju/remixer/pkg/models"
)

// EchoProvider returns the source image unchanged after an optional delay.
// It backs AI_PROVIDER=mock for local development without API credentials.
type EchoProvider struct {
	Delay time.Duration
}

func (p *EchoProvider) Name() string { return "mock" }

func (p *EchoProvider) Transform(ctx context.Context, req models.TransformRequest) (models.Image, error) {
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return models.Image{}, models.NewTransformError(p.Name(), ctx.Err())
		}
	}
	if req.Source.Empty() {
		return models.Image{}, models.NewTransformError(p.Name(), models.ErrNoImage)
	}
	out := models.Image{MIMEType: req.Source.MIMEType, Data: append([]byte(nil), req.Source.Data...)}
	return out, nil
}

var _ models.ImageTransformer = (*EchoProvider)(nil)
