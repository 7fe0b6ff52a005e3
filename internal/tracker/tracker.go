package tracker

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"trackme/internal/activity"
	"trackme/internal/category"
	"trackme/internal/probe"
)

type Config struct {
	UserID        string
	DeviceID      string
	PollInterval  time.Duration
	IdleThreshold time.Duration
	ProbeTimeout  time.Duration
	BufferCap     int
}

// Tracker polls the window probe, classifies snapshots and maintains the
// single open session plus the buffer of closed ones. All state changes
// happen under mu, so Pause/Resume/Stop never race an in-flight poll.
type Tracker struct {
	cfg    Config
	probe  probe.Probe
	engine *category.Engine

	mu         sync.Mutex
	current    *activity.Session
	buffer     *Buffer
	lastActive time.Time
	paused     bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, p probe.Probe, engine *category.Engine) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		cfg:        cfg,
		probe:      p,
		engine:     engine,
		buffer:     NewBuffer(cfg.BufferCap),
		lastActive: time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Buffer exposes the closed-session buffer for the sync dispatcher.
func (t *Tracker) Buffer() *Buffer {
	return t.buffer
}

func (t *Tracker) Start() {
	log.Printf("Starting session tracker (poll: %s, idle threshold: %s)",
		t.cfg.PollInterval, t.cfg.IdleThreshold)
	go t.run()
}

func (t *Tracker) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.poll(time.Now())
		}
	}
}

// poll is one tick of the observation loop.
func (t *Tracker) poll(now time.Time) {
	t.mu.Lock()
	if t.paused {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// The probe query runs outside the lock; only state changes are
	// serialized.
	ctx, cancel := context.WithTimeout(t.ctx, t.cfg.ProbeTimeout)
	info, err := t.probe.ActiveWindow(ctx)
	cancel()
	if err != nil {
		// Transient probe failures never close or corrupt the open
		// session; the next successful poll continues it.
		log.Printf("Probe error (skipping tick): %v", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}

	if info == nil || now.Sub(t.lastActive) > t.cfg.IdleThreshold {
		t.closeCurrentLocked(now)
		t.lastActive = now
		return
	}
	t.lastActive = now

	snap := activity.SnapshotAt(now, info.AppName, info.BundleID, info.Title, info.URL)
	cat := t.engine.Categorize(snap)
	project := t.engine.DetectProject(snap)
	score := t.engine.Score(snap, cat)

	if t.current != nil &&
		t.current.AppName == snap.AppName &&
		t.current.Category == cat &&
		t.current.WindowTitle == snap.Title {
		// Same classification key: extend the open session in place.
		t.refreshCurrentLocked(now)
		return
	}

	t.closeCurrentLocked(now)
	t.current = &activity.Session{
		ID:          uuid.NewString(),
		UserID:      t.cfg.UserID,
		DeviceID:    t.cfg.DeviceID,
		DeviceType:  activity.DeviceDesktop,
		AppName:     snap.AppName,
		BundleID:    snap.BundleID,
		WindowTitle: snap.Title,
		URL:         snap.URL,
		Category:    cat,
		Project:     project,
		Score:       score,
		StartTime:   now,
	}
	log.Printf("Session started: app=%q category=%q title=%q",
		snap.AppName, cat, truncate(snap.Title, 60))
}

func (t *Tracker) refreshCurrentLocked(now time.Time) {
	t.current.EndTime = now
	t.current.DurationSec = int(now.Sub(t.current.StartTime) / time.Second)
}

func (t *Tracker) closeCurrentLocked(now time.Time) {
	if t.current == nil {
		return
	}
	t.refreshCurrentLocked(now)
	t.buffer.Append(*t.current)
	log.Printf("Session closed: app=%q category=%q duration=%s",
		t.current.AppName, t.current.Category,
		activity.FormatDuration(time.Duration(t.current.DurationSec)*time.Second))
	t.current = nil
}

// Pause suspends polling and forces a session boundary.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}
	t.paused = true
	t.closeCurrentLocked(time.Now())
	log.Println("Tracker paused")
}

// Resume clears the paused flag. lastActive resets to now so time spent
// paused is not charged as idle.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	t.lastActive = time.Now()
	log.Println("Tracker resumed")
}

func (t *Tracker) IsPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Stop ends the poll loop and closes any open session. The caller is
// expected to trigger a final flush afterwards.
func (t *Tracker) Stop() {
	t.cancel()
	<-t.done
	t.mu.Lock()
	t.closeCurrentLocked(time.Now())
	t.mu.Unlock()
	log.Println("Tracker stopped")
}

// TodayStats sums buffered sessions started today plus the in-progress
// duration of the open session.
func (t *Tracker) TodayStats(now time.Time) activity.TodayStats {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats activity.TodayStats
	for _, s := range t.buffer.Snapshot() {
		if s.StartTime.Before(dayStart) {
			continue
		}
		stats.TotalSeconds += s.DurationSec
		stats.Sessions++
	}

	t.mu.Lock()
	if t.current != nil {
		stats.TotalSeconds += int(now.Sub(t.current.StartTime) / time.Second)
	}
	t.mu.Unlock()
	return stats
}

// DeviceID builds the stable per-device identifier.
func DeviceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s-%s", host, runtime.GOOS, runtime.GOARCH)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
