package approval

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLedger(t *testing.T) (*Ledger, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewLedger(store.NewMemoryStore(), WithClock(clock)), clock
}

func TestCreateApprovedSetsApprovedAt(t *testing.T) {
	l, clock := newTestLedger(t)

	rec, err := l.Create(context.Background(), Request{
		UserID:     "user_1",
		ActionType: "create_note",
		Payload:    map[string]any{"title": "groceries"},
		Approved:   true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.True(t, rec.Approved)
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, clock.now, *rec.ApprovedAt)
	assert.Equal(t, clock.now, rec.CreatedAt)
	assert.Len(t, rec.PayloadHash, 64)
}

func TestCreateRejectedLeavesApprovedAtEmpty(t *testing.T) {
	l, _ := newTestLedger(t)

	rec, err := l.Create(context.Background(), Request{
		UserID:     "user_1",
		ActionType: "delete_note",
		Payload:    map[string]any{"id": "n1"},
		Approved:   false,
	})
	require.NoError(t, err)
	assert.False(t, rec.Approved)
	assert.Nil(t, rec.ApprovedAt)
}

func TestPayloadHashIgnoresKeyOrder(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := l.Create(ctx, Request{
		UserID:     "user_1",
		ActionType: "create_event",
		Payload:    map[string]any{"x": 1, "y": 2},
		Approved:   true,
	})
	require.NoError(t, err)
	b, err := l.Create(ctx, Request{
		UserID:     "user_1",
		ActionType: "create_event",
		Payload:    map[string]any{"y": 2, "x": 1},
		Approved:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, a.PayloadHash, b.PayloadHash)
}

func TestCreateValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Create(ctx, Request{UserID: "", ActionType: "create_note", Approved: true})
	assert.ErrorIs(t, err, ErrInvalidApproval)
	_, err = l.Create(ctx, Request{UserID: "user_1", ActionType: "", Approved: true})
	assert.ErrorIs(t, err, ErrInvalidApproval)

	// A nil payload is a valid empty payload.
	rec, err := l.Create(ctx, Request{UserID: "user_1", ActionType: "read_tasks", Approved: true})
	require.NoError(t, err)
	assert.NotNil(t, rec.Payload)
}

func TestListRoundTripsRecords(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	created, err := l.Create(ctx, Request{
		UserID:     "user_1",
		ActionType: "send_draft_email",
		Payload:    map[string]any{"to": "someone"},
		Approved:   true,
	})
	require.NoError(t, err)
	_, err = l.Create(ctx, Request{UserID: "user_2", ActionType: "create_note", Approved: false})
	require.NoError(t, err)

	recs, err := l.List(ctx, "user_1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, created.ID, recs[0].ID)
	assert.Equal(t, "send_draft_email", recs[0].ActionType)
	assert.Equal(t, created.PayloadHash, recs[0].PayloadHash)
	assert.Equal(t, map[string]any{"to": "someone"}, recs[0].Payload)
	require.NotNil(t, recs[0].ApprovedAt)
	assert.Equal(t, clock.now, *recs[0].ApprovedAt)
}

func TestListHonorsLimit(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Create(ctx, Request{
			UserID:     "user_1",
			ActionType: "create_note",
			Payload:    map[string]any{"n": fmt.Sprintf("%d", i)},
			Approved:   true,
		})
		require.NoError(t, err)
	}

	recs, err := l.List(ctx, "user_1", 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	// Insertion order is preserved.
	assert.Equal(t, map[string]any{"n": "0"}, recs[0].Payload)
}

func TestListValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.List(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrInvalidApproval)
}
