package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

const (
	defaultInterval = 500 * time.Millisecond
	defaultRetry    = 5 * time.Second
	defaultSource   = "app://petstay"
)

// Producer is the broker side of the worker, satisfied by the Kafka sync
// producer.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the outbox collection and publishes each event as a
// CloudEvent. Events that fail to publish are retried with the configured
// backoff schedule.
type Worker struct {
	Store       *Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	interval := w.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOne(ctx); err != nil {
				return err
			}
		}
	}
}

// drainOne claims at most one due event and publishes it. Publish and
// formatting failures are recorded on the event, not returned, so one bad
// event never stalls the loop.
func (w *Worker) drainOne(ctx context.Context) error {
	doc, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return err
	}
	payload, headers, err := w.toCloudEvent(doc)
	if err != nil {
		_ = w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
		return nil
	}
	if err := w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers); err != nil {
		_ = w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
		return nil
	}
	return w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) toCloudEvent(doc *EventDocument) ([]byte, map[string]string, error) {
	var data map[string]any
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	source := w.Source
	if source == "" {
		source = defaultSource
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            doc.Name + ".v1",
		"source":          source,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "booking.confirmed" onto "booking.events.v1", keeping one
// topic per aggregate family.
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if len(w.Backoff) == 0 {
		return time.Now().Add(defaultRetry)
	}
	if attempts >= len(w.Backoff) {
		attempts = len(w.Backoff) - 1
	}
	return time.Now().Add(w.Backoff[attempts])
}
