package batch

import "github.com/kiranshivaraju/remixer/pkg/models"

// Observer receives progress notifications. Calls are made from the batch
// goroutine, never while the controller holds its lock, so implementations
// may call back into the controller.
type Observer interface {
	JobUpdated(job models.Job)
	BatchFinished(state State)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) JobUpdated(models.Job) {}
func (NopObserver) BatchFinished(State) {}

// ObserverFunc adapts a function to Observer. BatchFinished is ignored.
type ObserverFunc func(job models.Job)

func (f ObserverFunc) JobUpdated(job models.Job) { f(job) }
func (ObserverFunc) BatchFinished(State) {}
