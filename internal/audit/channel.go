package audit

import "context"

// ChannelAppender buffers events into an inbox drained by a Worker, keeping
// sink latency off the request path.
type ChannelAppender struct {
	inbox chan<- Event
}

// NewChannel builds a buffered inbox and its appender. The returned receive
// side feeds a Worker.
func NewChannel(size int) (*ChannelAppender, <-chan Event) {
	inbox := make(chan Event, size)
	return &ChannelAppender{inbox: inbox}, inbox
}

// Append enqueues the event, giving up if the context is cancelled before
// the inbox has room.
func (c *ChannelAppender) Append(ctx context.Context, event Event) error {
	select {
	case c.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tee fans one append out to several sinks, stopping at the first failure.
func Tee(sinks ...Appender) Appender {
	return teeAppender(sinks)
}

type teeAppender []Appender

func (t teeAppender) Append(ctx context.Context, event Event) error {
	for _, sink := range t {
		if err := sink.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
