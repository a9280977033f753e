package ai

import "github.com/kiranshivaraju/remixer/pkg/models"

var (
	ErrProviderUnavailable = models.ErrProviderUnavailable
	ErrInferenceTimeout    = models.ErrInferenceTimeout
	ErrNoImage             = models.ErrNoImage
)

// TransformError is the error type every provider returns on failure.
type TransformError = models.TransformError
