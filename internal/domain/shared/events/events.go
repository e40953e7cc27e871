package events

import "time"

// DomainEvent is raised by an aggregate when something business-relevant happened.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Recorder collects pending domain events inside an aggregate until the
// application layer drains them into the outbox.
type Recorder struct {
	pending []DomainEvent
}

func (r *Recorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *Recorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *Recorder) ClearEvents() {
	r.pending = nil
}
