// Package gemini implements models.ImageTransformer on top of the Gemini
// image models, reachable either through the Gemini API or Vertex AI.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/auth/credentials"
	"github.com/kiranshivaraju/remixer/internal/config"
	"github.com/kiranshivaraju/remixer/pkg/models"
	"google.golang.org/genai"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// generator is the subset of *genai.Models the provider calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider sends one prompt plus the source image per call and returns the
// first inline image of the response.
type Provider struct {
	name  string
	model string
	gen   generator
}

// NewProvider creates a provider backed by the Gemini API.
func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{name: "gemini", model: cfg.Model, gen: client.Models}, nil
}

// NewVertexProvider creates a provider backed by Vertex AI. Credentials come
// from VERTEX_CREDENTIALS_JSON, VERTEX_CREDENTIALS_PATH, or application
// default credentials, in that order.
func NewVertexProvider(ctx context.Context, cfg config.VertexConfig) (*Provider, error) {
	opts := &credentials.DetectOptions{Scopes: []string{cloudPlatformScope}}
	switch {
	case cfg.CredentialsJSON != "":
		opts.CredentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsPath != "":
		opts.CredentialsFile = cfg.CredentialsPath
	}
	creds, err := credentials.DetectDefault(opts)
	if err != nil {
		return nil, fmt.Errorf("detect vertex credentials: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendVertexAI,
		Project:     cfg.Project,
		Location:    cfg.Location,
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}
	return &Provider{name: "vertex", model: cfg.Model, gen: client.Models}, nil
}

func newWithGenerator(name, model string, gen generator) *Provider {
	return &Provider{name: name, model: model, gen: gen}
}

func (p *Provider) Name() string { return p.name }

// Transform sends the preset prompt and the source image to the model.
func (p *Provider) Transform(ctx context.Context, req models.TransformRequest) (models.Image, error) {
	if req.Source.Empty() {
		return models.Image{}, models.NewTransformError(p.name, fmt.Errorf("source image is empty"))
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(req.Source.Data, req.Source.MIMEType),
		},
	}}

	var genCfg *genai.GenerateContentConfig
	if req.AspectRatio != "" && req.AspectRatio != models.AspectFree {
		genCfg = &genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: string(req.AspectRatio)},
		}
	}

	slog.Debug("gemini generate", "provider", p.name, "model", p.model, "aspect_ratio", req.AspectRatio, "source_bytes", len(req.Source.Data))

	resp, err := p.gen.GenerateContent(ctx, p.model, contents, genCfg)
	if err != nil {
		return models.Image{}, models.NewTransformError(p.name, classify(err))
	}

	img, ok := extractImage(resp)
	if !ok {
		return models.Image{}, models.NewTransformError(p.name, models.ErrNoImage)
	}
	return img, nil
}

// extractImage returns the first inline image across all candidates.
func extractImage(resp *genai.GenerateContentResponse) (models.Image, bool) {
	if resp == nil {
		return models.Image{}, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return models.Image{MIMEType: mime, Data: part.InlineData.Data}, true
		}
	}
	return models.Image{}, false
}

// classify maps throttling and outage responses to ErrProviderUnavailable.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway:
			return fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
		}
	}
	return err
}

var _ models.ImageTransformer = (*Provider)(nil)
