package publisher

import (
	"context"

	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
)

// Notifier receives the ordered progress events of one publish job.
// Step may be called many times; exactly one of Success or Error
// terminates the stream, after which no further calls are made.
type Notifier interface {
	Step(jobID, step string)
	Success(jobID, noteURL string)
	Error(jobID string, err error)
}

// NopNotifier discards all events
type NopNotifier struct{}

func (NopNotifier) Step(string, string)    {}
func (NopNotifier) Success(string, string) {}
func (NopNotifier) Error(string, error)    {}

// EventNotifier republishes progress onto the in-process event service
// so the websocket feed and any other subscribers see every job.
type EventNotifier struct {
	events interfaces.EventService
}

// NewEventNotifier creates a notifier backed by the event service
func NewEventNotifier(events interfaces.EventService) *EventNotifier {
	return &EventNotifier{events: events}
}

func (n *EventNotifier) Step(jobID, step string) {
	_ = n.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventJobStep,
		Payload: map[string]string{
			"job_id":    jobID,
			"last_step": step,
		},
	})
}

func (n *EventNotifier) Success(jobID, noteURL string) {
	_ = n.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventJobCompleted,
		Payload: map[string]string{
			"job_id":   jobID,
			"note_url": noteURL,
		},
	})
}

func (n *EventNotifier) Error(jobID string, err error) {
	_ = n.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventJobFailed,
		Payload: map[string]string{
			"job_id": jobID,
			"error":  err.Error(),
		},
	})
}

// MultiNotifier fans events out to several notifiers in order
type MultiNotifier []Notifier

func (m MultiNotifier) Step(jobID, step string) {
	for _, n := range m {
		n.Step(jobID, step)
	}
}

func (m MultiNotifier) Success(jobID, noteURL string) {
	for _, n := range m {
		n.Success(jobID, noteURL)
	}
}

func (m MultiNotifier) Error(jobID string, err error) {
	for _, n := range m {
		n.Error(jobID, err)
	}
}
