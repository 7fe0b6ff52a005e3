package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackme/internal/activity"
	"trackme/internal/tracker"
)

type fakeStore struct {
	upserted  [][]activity.Session
	upsertErr error
	onUpsert  func() // runs before the error check, simulates mid-flush work
}

func (f *fakeStore) Init(ctx context.Context) error { return nil }

func (f *fakeStore) UpsertSessions(ctx context.Context, sessions []activity.Session) error {
	if f.onUpsert != nil {
		f.onUpsert()
	}
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, sessions)
	return nil
}

func (f *fakeStore) InsertCheckIn(ctx context.Context, c activity.CheckIn) error { return nil }

func (f *fakeStore) GetSessions(ctx context.Context, userID string, start, end time.Time) ([]activity.Session, error) {
	return nil, nil
}

func (f *fakeStore) GetCheckIns(ctx context.Context, userID string, start, end time.Time) ([]activity.CheckIn, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func TestFlushRemovesExactlySnapshot(t *testing.T) {
	store := &fakeStore{}
	buf := tracker.NewBuffer(100)
	buf.Append(activity.Session{ID: "a"})
	buf.Append(activity.Session{ID: "b"})

	d := New(store, buf, time.Second, time.Second)

	// A session closed while the store write is in flight must survive
	// the discard.
	store.onUpsert = func() { buf.Append(activity.Session{ID: "c"}) }
	require.NoError(t, d.FlushNow())

	require.Len(t, store.upserted, 1)
	assert.Len(t, store.upserted[0], 2)

	left := buf.Snapshot()
	require.Len(t, left, 1)
	assert.Equal(t, "c", left[0].ID)
}

func TestFlushFailureKeepsBuffer(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("store unreachable")}
	buf := tracker.NewBuffer(100)
	buf.Append(activity.Session{ID: "a"})

	d := New(store, buf, time.Second, time.Second)
	store.onUpsert = func() { buf.Append(activity.Session{ID: "b"}) }

	require.Error(t, d.FlushNow())
	assert.Equal(t, 2, buf.Len(), "failed flush leaves everything, including concurrent appends")

	// Next cycle retries the whole backlog.
	store.upsertErr = nil
	store.onUpsert = nil
	require.NoError(t, d.FlushNow())
	require.Len(t, store.upserted, 1)
	assert.Len(t, store.upserted[0], 2)
	assert.Equal(t, 0, buf.Len())
}

func TestFlushNowAfterStopDrainsBuffer(t *testing.T) {
	store := &fakeStore{}
	buf := tracker.NewBuffer(100)
	d := New(store, buf, time.Hour, time.Second)
	d.Start()
	d.Stop()

	// Shutdown order: the loop stops first, then one last synchronous
	// drain carries out whatever the tracker closed on its way down.
	buf.Append(activity.Session{ID: "a"})
	require.NoError(t, d.FlushNow())
	require.Len(t, store.upserted, 1)
	assert.Equal(t, 0, buf.Len())
}

func TestFlushEmptyBufferIsNoOp(t *testing.T) {
	store := &fakeStore{}
	buf := tracker.NewBuffer(100)
	d := New(store, buf, time.Second, time.Second)

	require.NoError(t, d.FlushNow())
	assert.Empty(t, store.upserted, "store is not called for an empty buffer")
}
