package models

import "time"

// GeneratedResult is the output of a job that reached done. It is immutable
// once created; its ID equals the originating job ID.
type GeneratedResult struct {
	ID            string      `json:"id"`
	Image         Image       `json:"image"`
	Preset        Preset      `json:"preset"`
	AspectRatio   AspectRatio `json:"aspect_ratio"`
	OriginalImage Image       `json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
}
