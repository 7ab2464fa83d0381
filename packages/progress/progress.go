// Package progress defines the outbound progress port. The engine pushes
// stage updates through a Publisher; delivery is best-effort with no
// back-pressure, and publisher failures never affect the run.
package progress

import (
	"github.com/sirupsen/logrus"
)

// Stages emitted by the pipeline.
const (
	StageStarted    = "started"
	StageRunning    = "running"
	StageValidating = "validating"
	StageCompleted  = "completed"
	StageFailed     = "failed"
)

// Event is one progress update.
type Event struct {
	Stage    string         `json:"stage"`
	Progress int            `json:"progress"` // 0..100
	Message  string         `json:"message"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Publisher receives progress events. Implementations must not block the
// pipeline; slow consumers should drop.
type Publisher interface {
	Publish(event Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }

// LogPublisher writes events to a logger.
type LogPublisher struct {
	Log logrus.FieldLogger
}

func (p LogPublisher) Publish(event Event) error {
	p.Log.WithFields(logrus.Fields{
		"stage":    event.Stage,
		"progress": event.Progress,
	}).Info(event.Message)
	return nil
}

// ChannelPublisher forwards events to a channel, dropping when the channel
// is full so a stalled consumer cannot stall the run.
type ChannelPublisher struct {
	Ch chan Event
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{Ch: make(chan Event, buffer)}
}

func (p *ChannelPublisher) Publish(event Event) error {
	select {
	case p.Ch <- event:
	default:
	}
	return nil
}
