package checkin

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"trackme/internal/activity"
	"trackme/internal/category"
	"trackme/internal/notify"
	"trackme/internal/storage"
)

// ErrNoPendingPrompt signals a caller-contract violation: a check-in
// response arrived with no prompt outstanding.
var ErrNoPendingPrompt = errors.New("no pending check-in prompt")

const (
	lunchStartHour = 12
	lunchEndHour   = 14
	shortGapMin    = 10.0
	maxSuggestions = 6
)

type Config struct {
	UserID       string
	TickInterval time.Duration
	StoreTimeout time.Duration
	WorkStart    string // "HH:MM", for work-hours-only periodic prompts
	WorkEnd      string
}

// Scheduler watches wall-clock gaps in activity and prompts the user to
// classify them. It keeps its own lastActive clock, independent of the
// session tracker's idle detection and with its own (longer) threshold.
type Scheduler struct {
	cfg       Config
	store     storage.Store
	notifier  notify.Notifier
	workStart int
	workEnd   int

	mu           sync.Mutex
	settings     activity.CheckInSettings
	lastActive   time.Time
	lastPeriodic time.Time
	snoozedUntil time.Time
	pending      *activity.PromptData

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, settings activity.CheckInSettings, store storage.Store, notifier notify.Notifier) (*Scheduler, error) {
	workStart, err := activity.ParseClock(cfg.WorkStart)
	if err != nil {
		return nil, err
	}
	workEnd, err := activity.ParseClock(cfg.WorkEnd)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Scheduler{
		cfg:          cfg,
		store:        store,
		notifier:     notifier,
		workStart:    workStart,
		workEnd:      workEnd,
		settings:     settings,
		lastActive:   now,
		lastPeriodic: now,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start() {
	log.Printf("Starting check-in scheduler (tick: %s, idle threshold: %dm)",
		s.cfg.TickInterval, s.settings.IdleThresholdMinutes)
	go s.run()
}

func (s *Scheduler) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(time.Now())
		}
	}
}

func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
	log.Println("Check-in scheduler stopped")
}

// tick is one pass of gap detection. lastActive is refreshed at the end
// of every tick, snoozed or not, which also resets the window after a
// prompt fires.
func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	prompt := s.detectLocked(now)
	s.lastActive = now
	s.mu.Unlock()

	if prompt != nil {
		s.notifier.Notify(*prompt)
	}
}

func (s *Scheduler) detectLocked(now time.Time) *activity.PromptData {
	if !s.settings.Enabled {
		return nil
	}
	if !s.snoozedUntil.IsZero() && now.Before(s.snoozedUntil) {
		return nil
	}

	gap := now.Sub(s.lastActive)
	gapMinutes := gap.Minutes()
	if gapMinutes >= float64(s.settings.IdleThresholdMinutes) {
		prompt := &activity.PromptData{
			Type:        activity.TriggerIdleReturn,
			GapStart:    s.lastActive,
			GapEnd:      now,
			GapMinutes:  int(math.Round(gapMinutes)),
			Suggestions: Suggest(gapMinutes, now),
		}
		s.pending = prompt
		s.lastPeriodic = now
		return prompt
	}

	if s.settings.PeriodicEnabled && s.pending == nil {
		interval := time.Duration(s.settings.PeriodicIntervalMin) * time.Minute
		if interval > 0 && now.Sub(s.lastPeriodic) >= interval &&
			(!s.settings.WorkHoursOnly || activity.InWorkHours(now, s.workStart, s.workEnd)) {
			prompt := &activity.PromptData{
				Type:        activity.TriggerPeriodic,
				GapStart:    s.lastPeriodic,
				GapEnd:      now,
				GapMinutes:  int(math.Round(now.Sub(s.lastPeriodic).Minutes())),
				Suggestions: Suggest(0, now),
			}
			s.pending = prompt
			s.lastPeriodic = now
			return prompt
		}
	}
	return nil
}

// Suggest builds the ranked suggestion list for a gap: lunch template in
// the lunch window, coffee for short gaps, then frequent templates in
// list order; de-duplicated by name and capped.
func Suggest(gapMinutes float64, at time.Time) []activity.Suggestion {
	var out []activity.Suggestion
	seen := make(map[string]bool)

	add := func(t *category.Template) {
		if t == nil || seen[t.Name] || len(out) >= maxSuggestions {
			return
		}
		seen[t.Name] = true
		out = append(out, activity.Suggestion{
			Name:       t.Name,
			Category:   t.Category,
			Emoji:      t.Emoji,
			DefaultMin: t.DefaultMin,
			Score:      t.Score,
		})
	}

	hour := at.Hour()
	if hour >= lunchStartHour && hour <= lunchEndHour {
		add(category.TemplateByName("Lunch Break"))
	}
	if gapMinutes < shortGapMin {
		add(category.TemplateByName("Coffee Break"))
	}
	for i := range category.DefaultTemplates {
		if category.DefaultTemplates[i].IsFrequent {
			add(&category.DefaultTemplates[i])
		}
	}
	return out
}

// Submit persists a check-in for the pending prompt. The store error (or
// the missing-prompt violation) propagates to the caller; the pending
// slot is cleared only after a successful write.
func (s *Scheduler) Submit(resp activity.CheckInResponse) error {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return ErrNoPendingPrompt
	}
	pending := *s.pending
	s.mu.Unlock()

	now := time.Now()
	record := activity.CheckIn{
		ID:            uuid.NewString(),
		UserID:        s.cfg.UserID,
		StartTime:     resp.StartTime,
		EndTime:       resp.EndTime,
		DurationMin:   resp.DurationMin,
		ActivityType:  resp.ActivityType,
		Description:   resp.Description,
		Category:      resp.Category,
		Score:         scoreForActivity(resp.ActivityType),
		IsMeeting:     resp.IsMeeting,
		TriggeredBy:   pending.Type,
		DeviceWasIdle: true,
		PromptTime:    pending.GapEnd,
		ResponseTime:  now,
	}
	if record.StartTime.IsZero() {
		record.StartTime = pending.GapStart
	}
	if record.EndTime.IsZero() {
		record.EndTime = pending.GapEnd
	}
	if record.DurationMin == 0 {
		record.DurationMin = pending.GapMinutes
	}
	if record.Category == "" {
		if t := category.TemplateByName(resp.ActivityType); t != nil {
			record.Category = t.Category
		} else {
			record.Category = "Other"
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
	defer cancel()
	if err := s.store.InsertCheckIn(ctx, record); err != nil {
		// Pending prompt stays; the caller owns the retry decision.
		return err
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	log.Printf("Check-in saved: %s (%dm, %s)", record.ActivityType, record.DurationMin, record.Category)
	return nil
}

func scoreForActivity(activityType string) int {
	if t := category.TemplateByName(activityType); t != nil {
		return t.Score
	}
	return 50
}

// Snooze suppresses prompts for the given number of minutes (settings
// default when minutes <= 0) and clears the pending prompt.
func (s *Scheduler) Snooze(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if minutes <= 0 {
		minutes = s.settings.SnoozeMinutes
	}
	s.snoozedUntil = time.Now().Add(time.Duration(minutes) * time.Minute)
	s.pending = nil
	log.Printf("Check-ins snoozed until %s", s.snoozedUntil.Format("15:04"))
}

// Skip discards the pending prompt without persisting anything.
func (s *Scheduler) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Pending returns a copy of the pending prompt, or nil.
func (s *Scheduler) Pending() *activity.PromptData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// UpdateSettings swaps the scheduler settings; the next tick uses them.
func (s *Scheduler) UpdateSettings(settings activity.CheckInSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	log.Printf("Check-in settings updated (enabled=%t, idle threshold=%dm)",
		settings.Enabled, settings.IdleThresholdMinutes)
}
