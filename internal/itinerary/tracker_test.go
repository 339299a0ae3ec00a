package itinerary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker(0)
	m := tr.Begin(3, OpReorder)

	st, ok := tr.Status(m.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, st.Status)
	assert.Equal(t, 3, st.Day)
	assert.Len(t, tr.Pending(), 1)
	assert.NoError(t, m.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)

	tr.Finish(m, nil)
	require.NoError(t, m.Wait(context.Background()))
	st, _ = tr.Status(m.ID)
	assert.Equal(t, StatusConfirmed, st.Status)
	assert.False(t, st.Finished.IsZero())
	assert.Empty(t, tr.Pending())
}

func TestTrackerFailure(t *testing.T) {
	tr := NewTracker(0)
	m := tr.Begin(1, OpDelete)
	tr.Finish(m, assert.AnError)

	assert.ErrorIs(t, m.Wait(context.Background()), assert.AnError)
	assert.ErrorIs(t, m.Err(), assert.AnError)
	st, _ := tr.Status(m.ID)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, assert.AnError.Error(), st.Error)
}

func TestTrackerForgetsOldestFinished(t *testing.T) {
	tr := NewTracker(2)
	pending := tr.Begin(1, OpCreate)
	var done []*Mutation
	for i := 0; i < 4; i++ {
		m := tr.Begin(1, OpUpdate)
		tr.Finish(m, nil)
		done = append(done, m)
	}

	_, ok := tr.Status(done[0].ID)
	assert.False(t, ok)
	_, ok = tr.Status(done[1].ID)
	assert.False(t, ok)
	_, ok = tr.Status(done[3].ID)
	assert.True(t, ok)
	_, ok = tr.Status(pending.ID)
	assert.True(t, ok, "pending writes are never forgotten")
}

func TestTrackerUnknownID(t *testing.T) {
	_, ok := NewTracker(0).Status("nope")
	assert.False(t, ok)
}
