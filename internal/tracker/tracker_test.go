package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackme/internal/activity"
	"trackme/internal/category"
	"trackme/internal/probe"
)

type fakeProbe struct {
	info *probe.Info
	err  error
}

func (f *fakeProbe) ActiveWindow(ctx context.Context) (*probe.Info, error) {
	return f.info, f.err
}

func (f *fakeProbe) Close() error { return nil }

func newTestTracker(t *testing.T, p probe.Probe) *Tracker {
	t.Helper()
	engine, err := category.NewEngine("09:00", "17:00")
	require.NoError(t, err)
	return New(Config{
		UserID:        "user-1",
		DeviceID:      "test-device",
		PollInterval:  3 * time.Second,
		IdleThreshold: 5 * time.Minute,
		ProbeTimeout:  2 * time.Second,
		BufferCap:     100,
	}, p, engine)
}

func vscode(title string) *probe.Info {
	return &probe.Info{AppName: "Visual Studio Code", Title: title}
}

func TestPollContinuesSameSession(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go - myproj")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	require.NotNil(t, tr.current)
	start := tr.current.StartTime
	id := tr.current.ID

	tr.poll(t0.Add(3 * time.Second))
	tr.poll(t0.Add(6 * time.Second))

	require.NotNil(t, tr.current)
	assert.Equal(t, id, tr.current.ID, "continuation must not mint a new session")
	assert.Equal(t, start, tr.current.StartTime)
	assert.Equal(t, 6, tr.current.DurationSec)
	assert.Equal(t, 0, tr.buffer.Len(), "no session closed during continuation")
}

func TestPollClosesOnClassificationChange(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go - myproj")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	firstID := tr.current.ID

	// Title change draws a session boundary.
	p.info = vscode("other.go - myproj")
	tr.poll(t0.Add(3 * time.Second))

	closed := tr.buffer.Snapshot()
	require.Len(t, closed, 1)
	assert.Equal(t, firstID, closed[0].ID)
	assert.False(t, closed[0].EndTime.IsZero())
	assert.Equal(t, 3, closed[0].DurationSec)

	require.NotNil(t, tr.current)
	assert.NotEqual(t, firstID, tr.current.ID)
	assert.Equal(t, "other.go - myproj", tr.current.WindowTitle)
}

func TestPollAppChangeChangesCategory(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	assert.Equal(t, "Development", tr.current.Category)

	p.info = &probe.Info{AppName: "Slack", Title: "general"}
	tr.poll(t0.Add(3 * time.Second))

	require.Equal(t, 1, tr.buffer.Len())
	assert.Equal(t, "Communication", tr.current.Category)
}

func TestPollNoWindowClosesSession(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	require.NotNil(t, tr.current)

	p.info = nil
	tr.poll(t0.Add(3 * time.Second))

	assert.Nil(t, tr.current, "no new session opens while idle")
	assert.Equal(t, 1, tr.buffer.Len())
}

func TestPollIdleThresholdClosesSession(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	require.NotNil(t, tr.current)

	// Ten minutes of silence, then an active window: the stale session
	// closes and nothing opens on the idle-detection tick itself.
	t1 := t0.Add(10 * time.Minute)
	tr.poll(t1)
	assert.Nil(t, tr.current)
	assert.Equal(t, 1, tr.buffer.Len())

	// The next active poll starts fresh.
	tr.poll(t1.Add(3 * time.Second))
	require.NotNil(t, tr.current)
	assert.Equal(t, 1, tr.buffer.Len())
}

func TestPollProbeErrorIsSwallowed(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	id := tr.current.ID

	p.err = errors.New("X connection hiccup")
	tr.poll(t0.Add(3 * time.Second))

	require.NotNil(t, tr.current, "probe error must not close the session")
	assert.Equal(t, id, tr.current.ID)
	assert.Equal(t, 0, tr.buffer.Len())

	// Recovery: the next good poll continues the same session.
	p.err = nil
	tr.poll(t0.Add(6 * time.Second))
	assert.Equal(t, id, tr.current.ID)
	assert.Equal(t, 6, tr.current.DurationSec)
}

func TestPauseClosesSessionAndSuspendsPolling(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go")}
	tr := newTestTracker(t, p)

	t0 := time.Now()
	tr.poll(t0)
	require.NotNil(t, tr.current)

	tr.Pause()
	assert.True(t, tr.IsPaused())
	assert.Nil(t, tr.current)
	assert.Equal(t, 1, tr.buffer.Len())

	tr.poll(t0.Add(3 * time.Second))
	assert.Nil(t, tr.current, "paused tracker ignores polls")

	tr.Resume()
	assert.False(t, tr.IsPaused())
	tr.poll(time.Now())
	assert.NotNil(t, tr.current, "idle accrued while paused is not charged")
}

func TestTodayStats(t *testing.T) {
	p := &fakeProbe{info: vscode("main.go")}
	tr := newTestTracker(t, p)

	// Pinned to noon so the one-hour-ago session is unambiguously today.
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	tr.buffer.Append(activity.Session{StartTime: now.Add(-time.Hour), DurationSec: 120})
	tr.buffer.Append(activity.Session{StartTime: now.Add(-48 * time.Hour), DurationSec: 600})

	tr.poll(now.Add(-30 * time.Second))
	stats := tr.TodayStats(now)
	assert.Equal(t, 1, stats.Sessions, "yesterday's session is excluded")
	assert.Equal(t, 120+30, stats.TotalSeconds)
}

func TestBufferSnapshotDiscard(t *testing.T) {
	b := NewBuffer(10)
	b.Append(activity.Session{ID: "a"})
	b.Append(activity.Session{ID: "b"})

	snap, mark := b.SnapshotMark()
	require.Len(t, snap, 2)

	// Appended mid-flush: must survive a discard of the snapshot.
	b.Append(activity.Session{ID: "c"})
	b.DiscardTo(mark + uint64(len(snap)))

	remaining := b.Snapshot()
	require.Len(t, remaining, 1)
	assert.Equal(t, "c", remaining[0].ID)
}

func TestBufferCapDropDuringFlushKeepsUnsyncedSession(t *testing.T) {
	b := NewBuffer(3)
	b.Append(activity.Session{ID: "a"})
	b.Append(activity.Session{ID: "b"})
	b.Append(activity.Session{ID: "c"})

	batch, mark := b.SnapshotMark()
	require.Len(t, batch, 3)

	// The cap engages while the batch write is in flight: "a" is dropped
	// to make room for "d". Discarding the batch afterwards must not
	// charge "d" for the drop.
	b.Append(activity.Session{ID: "d"})
	b.DiscardTo(mark + uint64(len(batch)))

	remaining := b.Snapshot()
	require.Len(t, remaining, 1)
	assert.Equal(t, "d", remaining[0].ID, "session closed mid-flush was never synced and must stay")
}

func TestBufferDropOldestAtCap(t *testing.T) {
	b := NewBuffer(2)
	b.Append(activity.Session{ID: "a"})
	b.Append(activity.Session{ID: "b"})
	b.Append(activity.Session{ID: "c"})

	snap := b.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].ID)
	assert.Equal(t, "c", snap[1].ID)
}
