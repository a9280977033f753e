package batch

import "github.com/kiranshivaraju/remixer/pkg/models"

// Progress summarises a batch for a progress overlay.
type Progress struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Current   string `json:"current,omitempty"`
}

// State is a point-in-time copy of the controller's job list.
type State struct {
	Jobs     []models.Job `json:"jobs"`
	Error    string       `json:"error,omitempty"`
	Busy     bool         `json:"busy"`
	Progress Progress     `json:"progress"`
}

func newState(jobs []models.Job, errMsg string) State {
	s := State{
		Jobs:     make([]models.Job, len(jobs)),
		Error:    errMsg,
		Progress: Progress{Total: len(jobs)},
	}
	copy(s.Jobs, jobs)
	for _, j := range jobs {
		if j.Status.Active() {
			s.Busy = true
		} else {
			s.Progress.Completed++
		}
		if j.Status == models.JobStatusGenerating {
			s.Progress.Current = j.Preset.Name
		}
	}
	return s
}
