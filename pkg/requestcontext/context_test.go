package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	t.Run("returns the injected time", func(t *testing.T) {
		pinned := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		ctx := WithTime(context.Background(), pinned)
		assert.Equal(t, pinned, Now(ctx))
	})

	t.Run("falls back to the wall clock", func(t *testing.T) {
		before := time.Now()
		got := Now(context.Background())
		assert.False(t, got.Before(before))
	})
}

func TestRequestIDAndActorID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ActorID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithActorID(ctx, "acct-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "acct-1", ActorID(ctx))
}
