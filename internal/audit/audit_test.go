package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionAccountRegistered, Subject: "acct-1"}))

	events, err := store.ListBySubject(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())

	pinned := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, publisher.Emit(ctx, Event{Action: ActionAccountVerified, Subject: "acct-2", Timestamp: pinned}))

	events, err = store.ListBySubject(ctx, "acct-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, pinned, events[0].Timestamp)
}

func TestInMemoryStoreOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for _, event := range []Event{
		{Action: ActionApprovalCreated, Subject: "acct-1"},
		{Action: ActionApprovalApproved, Subject: "acct-1"},
		{Action: ActionApprovalCreated, Subject: "acct-2"},
	} {
		require.NoError(t, store.Append(ctx, event))
	}

	t.Run("recent events come newest first", func(t *testing.T) {
		recent, err := store.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "acct-2", recent[0].Subject)
		assert.Equal(t, ActionApprovalApproved, recent[1].Action)
	})

	t.Run("limit beyond length returns everything", func(t *testing.T) {
		recent, err := store.ListRecent(ctx, 50)
		require.NoError(t, err)
		assert.Len(t, recent, 3)
	})

	t.Run("subject history is oldest first", func(t *testing.T) {
		history, err := store.ListBySubject(ctx, "acct-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, ActionApprovalCreated, history[0].Action)
		assert.Equal(t, ActionApprovalApproved, history[1].Action)
	})
}

func TestChannelAppenderAndWorker(t *testing.T) {
	appender, inbox := NewChannel(8)
	store := NewInMemoryStore()
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.NoError(t, appender.Append(ctx, Event{Action: ActionStatusChanged, Subject: "acct-1"}))
	require.NoError(t, appender.Append(ctx, Event{Action: ActionStatusChanged, Subject: "acct-1"}))

	require.Eventually(t, func() bool {
		events, err := store.ListBySubject(context.Background(), "acct-1")
		return err == nil && len(events) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestChannelAppenderHonoursCancellation(t *testing.T) {
	appender, _ := NewChannel(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := appender.Append(ctx, Event{Action: ActionStatusChanged})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingSink struct{ err error }

func (f failingSink) Append(context.Context, Event) error { return f.err }

func TestTee(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to every sink", func(t *testing.T) {
		first := NewInMemoryStore()
		second := NewInMemoryStore()

		sink := Tee(first, second)
		require.NoError(t, sink.Append(ctx, Event{Action: ActionApprovalBlocked, Subject: "acct-1"}))

		for _, store := range []*InMemoryStore{first, second} {
			events, err := store.ListBySubject(ctx, "acct-1")
			require.NoError(t, err)
			assert.Len(t, events, 1)
		}
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		boom := errors.New("sink down")
		last := NewInMemoryStore()

		sink := Tee(failingSink{err: boom}, last)
		err := sink.Append(ctx, Event{Action: ActionApprovalBlocked, Subject: "acct-1"})
		assert.ErrorIs(t, err, boom)

		events, listErr := last.ListBySubject(ctx, "acct-1")
		require.NoError(t, listErr)
		assert.Empty(t, events)
	})
}
