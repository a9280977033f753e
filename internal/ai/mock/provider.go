package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/remixer/internal/ai"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

// MockProvider satisfies models.ImageTransformer for testing. It records
// every request it receives.
type MockProvider struct {
	Name_         string
	TransformFunc func(ctx context.Context, req models.TransformRequest) (models.Image, error)

	mu    sync.Mutex
	calls []models.TransformRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Transform(ctx context.Context, req models.TransformRequest) (models.Image, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.TransformFunc != nil {
		return m.TransformFunc(ctx, req)
	}
	return models.Image{}, nil
}

// Calls returns the requests seen so far, in call order.
func (m *MockProvider) Calls() []models.TransformRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TransformRequest(nil), m.calls...)
}

// CallCount returns how many times Transform was invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// NewMockProvider returns a MockProvider whose output image encodes the prompt,
// so tests can tell results apart.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		TransformFunc: func(_ context.Context, req models.TransformRequest) (models.Image, error) {
			return models.Image{MIMEType: "image/png", Data: []byte("remix:" + req.Prompt)}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always fails with err.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		TransformFunc: func(_ context.Context, _ models.TransformRequest) (models.Image, error) {
			return models.Image{}, models.NewTransformError("mock-failing", err)
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until the context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		TransformFunc: func(ctx context.Context, _ models.TransformRequest) (models.Image, error) {
			<-ctx.Done()
			return models.Image{}, models.NewTransformError("mock-timeout", ai.ErrInferenceTimeout)
		},
	}
}

// Compile-time check that MockProvider implements ImageTransformer.
var _ models.ImageTransformer = (*MockProvider)(nil)
