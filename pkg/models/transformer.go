// Package models contains shared data models used across the Remixer codebase.
package models

import "context"

// ImageTransformer is the remote image-generation collaborator. Every provider
// integration implements it; the batch controller only ever sees this interface.
type ImageTransformer interface {
	// Transform sends the source image and prompt to the remote API and returns
	// the generated image.
	Transform(ctx context.Context, req TransformRequest) (Image, error)
	// Name returns the provider identifier (e.g., "gemini", "vertex").
	Name() string
}

// TransformRequest is the input to a single remote transform call.
type TransformRequest struct {
	Source      Image
	Prompt      string
	AspectRatio AspectRatio
}
