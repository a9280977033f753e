package models

import "time"

// JobStatus is the lifecycle state of a single transform job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusGenerating JobStatus = "generating"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Active reports whether the status keeps a batch busy.
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusGenerating
}

// Job is one (source image, preset, aspect ratio) unit of work inside a batch.
// Status transitions are the only mutation after creation.
type Job struct {
	ID          string      `json:"id"`
	Preset      Preset      `json:"preset"`
	Source      Image       `json:"-"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Status      JobStatus   `json:"status"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
