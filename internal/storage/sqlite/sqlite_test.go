package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackme/internal/activity"
	"trackme/internal/storage"
)

func setupTestDB(t *testing.T) storage.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_trackme.db")
	store := NewSQLiteStore(dbPath)
	require.NoError(t, store.Init(context.Background()), "failed to initialize test database")
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testSession(id string, start time.Time) activity.Session {
	return activity.Session{
		ID:          id,
		UserID:      "user-1",
		DeviceID:    "test-device",
		DeviceType:  activity.DeviceDesktop,
		AppName:     "Visual Studio Code",
		WindowTitle: "main.go - myproj",
		Category:    "Development",
		Project:     "myproj",
		Score:       95,
		StartTime:   start,
		EndTime:     start.Add(90 * time.Second),
		DurationSec: 90,
	}
}

func TestUpsertAndGetSessions(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	sess := testSession("s1", now)
	require.NoError(t, store.UpsertSessions(ctx, []activity.Session{sess}))

	got, err := store.GetSessions(ctx, "user-1", now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sess.ID, got[0].ID)
	assert.Equal(t, sess.AppName, got[0].AppName)
	assert.Equal(t, sess.Category, got[0].Category)
	assert.Equal(t, sess.Project, got[0].Project)
	assert.Equal(t, sess.Score, got[0].Score)
	assert.Equal(t, sess.DurationSec, got[0].DurationSec)
	assert.Equal(t, sess.StartTime, got[0].StartTime.UTC().Truncate(time.Second))
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	batch := []activity.Session{testSession("s1", now), testSession("s2", now.Add(2*time.Minute))}
	require.NoError(t, store.UpsertSessions(ctx, batch))

	// Redeliver the same batch with an updated duration: no duplicate
	// rows, updated fields win.
	batch[0].DurationSec = 300
	batch[0].EndTime = now.Add(5 * time.Minute)
	require.NoError(t, store.UpsertSessions(ctx, batch))

	got, err := store.GetSessions(ctx, "user-1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 300, got[0].DurationSec)
}

func TestUpsertEmptyBatch(t *testing.T) {
	store := setupTestDB(t)
	assert.NoError(t, store.UpsertSessions(context.Background(), nil))
}

func TestInsertAndGetCheckIns(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	checkin := activity.CheckIn{
		ID:            "c1",
		UserID:        "user-1",
		StartTime:     now.Add(-20 * time.Minute),
		EndTime:       now,
		DurationMin:   20,
		ActivityType:  "Coffee Break",
		Category:      "Break",
		Score:         0,
		TriggeredBy:   activity.TriggerIdleReturn,
		DeviceWasIdle: true,
		PromptTime:    now,
		ResponseTime:  now,
	}
	require.NoError(t, store.InsertCheckIn(ctx, checkin))

	got, err := store.GetCheckIns(ctx, "user-1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee Break", got[0].ActivityType)
	assert.Equal(t, activity.TriggerIdleReturn, got[0].TriggeredBy)
	assert.True(t, got[0].DeviceWasIdle)

	// Duplicate id must fail: check-ins are insert-only.
	assert.Error(t, store.InsertCheckIn(ctx, checkin))
}

func TestGetSessionsFiltersByUserAndRange(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	a := testSession("a", now)
	b := testSession("b", now.Add(-2*time.Hour))
	other := testSession("c", now)
	other.UserID = "user-2"
	require.NoError(t, store.UpsertSessions(ctx, []activity.Session{a, b, other}))

	got, err := store.GetSessions(ctx, "user-1", now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestCloseDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_trackme.db")
	store := NewSQLiteStore(dbPath)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Close())

	err := store.UpsertSessions(ctx, []activity.Session{testSession("s1", time.Now())})
	assert.Error(t, err) // sql: database is closed
}
