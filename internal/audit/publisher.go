package audit

import (
	"context"
	"time"
)

// Appender is the write side of an audit sink. The memory and Postgres
// stores implement it, as does the Kafka sink.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store is an audit sink that can also be queried.
type Store interface {
	Appender
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and writes
// through an Appender so tests and deployments can swap sinks.
type Publisher struct {
	sink Appender
}

// NewPublisher wraps a sink.
func NewPublisher(sink Appender) *Publisher {
	return &Publisher{sink: sink}
}

// Emit appends the event, stamping Timestamp if the caller left it zero.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}
