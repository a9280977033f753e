package models

import (
	"context"
	"errors"
	"fmt"
)

// Remote transform failures. Providers wrap these in a TransformError.
var (
	ErrProviderUnavailable = errors.New("image provider unavailable")
	ErrInferenceTimeout    = errors.New("image generation timeout")
	ErrNoImage             = errors.New("image provider returned no image")
)

// TransformError reports a failed remote transform call. It wraps the
// underlying cause so callers can still match the sentinels above.
type TransformError struct {
	Provider string
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s transform failed: %v", e.Provider, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// NewTransformError wraps err for provider, mapping context expiry to
// ErrInferenceTimeout. Already-wrapped errors are returned as is.
func NewTransformError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransformError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrInferenceTimeout) {
		err = fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	return &TransformError{Provider: provider, Err: err}
}
