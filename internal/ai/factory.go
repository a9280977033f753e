package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/kiranshivaraju/remixer/internal/ai/gemini"
	"github.com/kiranshivaraju/remixer/internal/config"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

const echoDelay = 1500 * time.Millisecond

// NewTransformer constructs the image transformer selected by config.
// Called once at startup.
func NewTransformer(ctx context.Context, cfg config.AIConfig) (models.ImageTransformer, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini)
	case "vertex":
		return gemini.NewVertexProvider(ctx, cfg.Vertex)
	case "mock":
		return &EchoProvider{Delay: echoDelay}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, vertex, mock", cfg.Provider)
	}
}
