package audit

import "context"

// Worker consumes audit events from a channel and persists them, keeping
// event capture off the request path. cmd/server runs it under the same
// errgroup as the HTTP server.
type Worker struct {
	sink  Appender
	inbox <-chan Event
}

// NewWorker builds a worker draining inbox into sink.
func NewWorker(sink Appender, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

// Run drains the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
