package memory

import (
	"context"
	"errors"
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

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// flakyStore injects failures into selected operations.
type flakyStore struct {
	store.DocumentStore
	failOn func(op, collection string) error
}

func (f *flakyStore) Insert(ctx context.Context, collection string, doc map[string]any) error {
	if err := f.failOn("insert", collection); err != nil {
		return err
	}
	return f.DocumentStore.Insert(ctx, collection, doc)
}

func (f *flakyStore) Delete(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	if err := f.failOn("delete", collection); err != nil {
		return 0, err
	}
	return f.DocumentStore.Delete(ctx, collection, filter)
}

func neverFail(string, string) error { return nil }

func newTestManager(t *testing.T) (*Manager, *fakeClock, store.DocumentStore) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	docs := store.NewMemoryStore()
	return NewManager(docs, WithClock(clock)), clock, docs
}

func TestRecordHotDefaultTTL(t *testing.T) {
	m, clock, _ := newTestManager(t)

	rec, err := m.RecordHot(context.Background(), "user_1", "preferred_language", "portuguese", []string{"preference"}, 0)
	require.NoError(t, err)
	assert.Equal(t, clock.now.AddDate(0, 0, 7), rec.ExpiresAt)
	assert.Equal(t, clock.now, rec.CreatedAt)
	assert.NotEmpty(t, rec.ID)
}

func TestRecordHotSanitizesValue(t *testing.T) {
	m, _, _ := newTestManager(t)

	rec, err := m.RecordHot(context.Background(), "user_1", "note", "password: hunter2", nil, 7)
	require.NoError(t, err)
	assert.Equal(t, "[PASSWORD_REDACTED]", rec.Value)

	listed, err := m.ListHot(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "[PASSWORD_REDACTED]", listed[0].Value)
}

func TestRecordValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "", "key", "v", nil, 7)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = m.RecordHot(ctx, "user_1", "", "v", nil, 7)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = m.RecordCold(ctx, "", "key", "v", nil)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = m.Archive(ctx, "user_1", "key", "")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestSweepExpiredArchivesThenDeletes(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	hot, err := m.RecordHot(ctx, "user_1", "trip_plan", "lisbon in april", []string{"travel"}, 7)
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)

	n, err := m.SweepExpired(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	live, err := m.ListHot(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, live)

	archived, err := m.ListArchive(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, ArchivedReasonTTL, archived[0].ArchivedReason)
	assert.Equal(t, hot.ID, archived[0].ID)
	assert.Equal(t, hot.CreatedAt, archived[0].CreatedAt)
	assert.Equal(t, clock.now, archived[0].ArchivedAt)
}

func TestSweepLeavesUnexpiredRecords(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "user_1", "short", "v", nil, 1)
	require.NoError(t, err)
	_, err = m.RecordHot(ctx, "user_1", "long", "v", nil, 30)
	require.NoError(t, err)

	clock.Advance(2 * 24 * time.Hour)

	n, err := m.SweepExpired(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	live, err := m.ListHot(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "long", live[0].Key)
}

func TestSweepArchiveFailureKeepsHotRecord(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	inner := store.NewMemoryStore()
	boom := errors.New("archive write failed")
	flaky := &flakyStore{DocumentStore: inner, failOn: neverFail}
	m := NewManager(flaky, WithClock(clock))
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "user_1", "doomed", "v", nil, 1)
	require.NoError(t, err)
	clock.Advance(2 * 24 * time.Hour)

	flaky.failOn = func(op, collection string) error {
		if op == "insert" && collection == CollectionArchive {
			return boom
		}
		return nil
	}

	n, err := m.SweepExpired(ctx, "user_1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)

	// The hot record must survive a failed archive write.
	hot, err := inner.Find(ctx, CollectionHot, store.Filter{Eq: map[string]string{"user_id": "user_1"}})
	require.NoError(t, err)
	assert.Len(t, hot, 1)
	arch, err := inner.Find(ctx, CollectionArchive, store.Filter{Eq: map[string]string{"user_id": "user_1"}})
	require.NoError(t, err)
	assert.Empty(t, arch)
}

func TestSweepReplayAfterPartialFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	inner := store.NewMemoryStore()
	boom := errors.New("delete failed")
	flaky := &flakyStore{DocumentStore: inner, failOn: neverFail}
	m := NewManager(flaky, WithClock(clock))
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "user_1", "stuck", "v", nil, 1)
	require.NoError(t, err)
	clock.Advance(2 * 24 * time.Hour)

	// First sweep archives but fails to delete.
	flaky.failOn = func(op, collection string) error {
		if op == "delete" && collection == CollectionHot {
			return boom
		}
		return nil
	}
	_, err = m.SweepExpired(ctx, "user_1")
	assert.ErrorIs(t, err, boom)

	// Replay must not duplicate the archive entry.
	flaky.failOn = neverFail
	n, err := m.SweepExpired(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	arch, err := m.ListArchive(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, arch, 1)
	live, err := m.ListHot(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestSweepNothingExpired(t *testing.T) {
	m, _, _ := newTestManager(t)

	n, err := m.SweepExpired(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListHotSweepsInline(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "user_1", "ephemeral", "v", nil, 7)
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)

	// No explicit sweep: the read itself must archive the expired record.
	live, err := m.ListHot(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, live)

	arch, err := m.ListArchive(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, arch, 1)
	assert.Equal(t, ArchivedReasonTTL, arch[0].ArchivedReason)
}

func TestExplicitArchiveMovesHotAndCold(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "user_1", "work_schedule", "9 to 5", nil, 7)
	require.NoError(t, err)
	_, err = m.RecordCold(ctx, "user_1", "work_schedule", "9 to 5", nil)
	require.NoError(t, err)
	_, err = m.RecordCold(ctx, "user_1", "other_key", "keep me", nil)
	require.NoError(t, err)

	n, err := m.Archive(ctx, "user_1", "work_schedule", "superseded by new schedule")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	live, err := m.ListHot(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, live)

	cold, err := m.ListCold(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, cold, 1)
	assert.Equal(t, "other_key", cold[0].Key)

	arch, err := m.ListArchive(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, arch, 2)
	for _, a := range arch {
		assert.Equal(t, "superseded by new schedule", a.ArchivedReason)
		assert.Equal(t, "work_schedule", a.Key)
	}
}

func TestArchiveIsRepeatSafe(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordCold(ctx, "user_1", "k", "v", nil)
	require.NoError(t, err)

	n, err := m.Archive(ctx, "user_1", "k", "done with it")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = m.Archive(ctx, "user_1", "k", "done with it")
	require.NoError(t, err)
	assert.Zero(t, n)

	arch, err := m.ListArchive(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, arch, 1)
}

func TestTiersAreIsolatedPerUser(t *testing.T) {
	m, clock, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordHot(ctx, "user_a", "k", "v", nil, 1)
	require.NoError(t, err)
	_, err = m.RecordHot(ctx, "user_b", "k", "v", nil, 1)
	require.NoError(t, err)

	clock.Advance(2 * 24 * time.Hour)

	n, err := m.SweepExpired(ctx, "user_a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	archB, err := m.ListArchive(ctx, "user_b")
	require.NoError(t, err)
	assert.Empty(t, archB)
}
