package activity

import (
	"fmt"
	"time"
)

type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
)

// TriggerType records what caused a check-in prompt.
type TriggerType string

const (
	TriggerIdleReturn  TriggerType = "idle_return"
	TriggerPeriodic    TriggerType = "periodic"
	TriggerGapDetected TriggerType = "gap_detected"
	TriggerManual      TriggerType = "manual"
)

// Snapshot is a point-in-time view of the foreground window. It is built
// on every poll tick and never persisted.
type Snapshot struct {
	AppName   string
	BundleID  string
	Title     string
	URL       string
	TimeOfDay float64 // fractional hours, e.g. 14.5 for 14:30
	DayOfWeek time.Weekday
}

// Session is a contiguous interval attributed to one (app, category,
// title) classification. Open sessions have a zero EndTime; once closed a
// session is immutable and waits in the sync buffer.
type Session struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	DeviceID    string     `db:"device_id" json:"device_id"`
	DeviceType  DeviceType `db:"device_type" json:"device_type"`
	AppName     string     `db:"app_name" json:"app_name"`
	BundleID    string     `db:"app_bundle_id" json:"app_bundle_id,omitempty"`
	WindowTitle string     `db:"window_title" json:"window_title,omitempty"`
	URL         string     `db:"url" json:"url,omitempty"`
	Category    string     `db:"auto_category" json:"auto_category,omitempty"`
	Project     string     `db:"auto_project" json:"auto_project,omitempty"`
	Score       int        `db:"productivity_score" json:"productivity_score"`
	StartTime   time.Time  `db:"start_time" json:"start_time"`
	EndTime     time.Time  `db:"end_time" json:"end_time,omitempty"`
	DurationSec int        `db:"duration_seconds" json:"duration_seconds,omitempty"`
	IsIdle      bool       `db:"is_idle" json:"is_idle"`
}

// CheckIn is a user-supplied manual activity record covering a detected
// gap (or submitted ad hoc).
type CheckIn struct {
	ID            string      `db:"id" json:"id"`
	UserID        string      `db:"user_id" json:"user_id"`
	StartTime     time.Time   `db:"start_time" json:"start_time"`
	EndTime       time.Time   `db:"end_time" json:"end_time"`
	DurationMin   int         `db:"duration_minutes" json:"duration_minutes"`
	ActivityType  string      `db:"activity_type" json:"activity_type"`
	Description   string      `db:"activity_description" json:"activity_description,omitempty"`
	Category      string      `db:"category" json:"category"`
	Score         int         `db:"productivity_score" json:"productivity_score"`
	IsMeeting     bool        `db:"is_meeting" json:"is_meeting"`
	TriggeredBy   TriggerType `db:"triggered_by" json:"triggered_by"`
	DeviceWasIdle bool        `db:"device_was_idle" json:"device_was_idle"`
	PromptTime    time.Time   `db:"prompt_time" json:"prompt_time"`
	ResponseTime  time.Time   `db:"response_time" json:"response_time"`
}

// Suggestion is one ranked entry offered in a check-in prompt.
type Suggestion struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Emoji      string `json:"emoji"`
	DefaultMin int    `json:"default_duration"`
	Score      int    `json:"productivity_score"`
}

// PromptData is the payload dispatched to the prompt surface when a gap
// is detected. At most one prompt is pending at a time.
type PromptData struct {
	Type        TriggerType  `json:"type"`
	GapStart    time.Time    `json:"gap_start"`
	GapEnd      time.Time    `json:"gap_end"`
	GapMinutes  int          `json:"gap_minutes"`
	Suggestions []Suggestion `json:"suggestions"`
}

// CheckInResponse is what the user sends back for a pending prompt.
type CheckInResponse struct {
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DurationMin  int       `json:"duration_minutes"`
	IsMeeting    bool      `json:"is_meeting"`
}

// CheckInSettings is per-user scheduler configuration. The daemon loads
// it at startup; a config file edit may replace it while running.
type CheckInSettings struct {
	Enabled              bool   `mapstructure:"enabled" json:"enabled"`
	IdleThresholdMinutes int    `mapstructure:"idle_threshold_minutes" json:"idle_threshold_minutes"`
	PeriodicEnabled      bool   `mapstructure:"periodic_enabled" json:"periodic_enabled"`
	PeriodicIntervalMin  int    `mapstructure:"periodic_interval_minutes" json:"periodic_interval_minutes"`
	WorkHoursOnly        bool   `mapstructure:"work_hours_only" json:"work_hours_only"`
	SnoozeMinutes        int    `mapstructure:"snooze_minutes" json:"snooze_minutes"`
	NotificationMethod   string `mapstructure:"notification_method" json:"notification_method"` // "log" or "desktop"
}

// TodayStats is the aggregate exposed over IPC.
type TodayStats struct {
	TotalSeconds int `json:"total_seconds"`
	Sessions     int `json:"sessions"`
}

// SnapshotAt builds the time-derived snapshot fields from t.
func SnapshotAt(t time.Time, appName, bundleID, title, url string) Snapshot {
	return Snapshot{
		AppName:   appName,
		BundleID:  bundleID,
		Title:     title,
		URL:       url,
		TimeOfDay: float64(t.Hour()) + float64(t.Minute())/60.0,
		DayOfWeek: t.Weekday(),
	}
}

// FormatDuration renders a duration as h/m/s parts, e.g. "1h 12m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	s := d - m*time.Minute
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s/time.Second)
	default:
		return fmt.Sprintf("%ds", s/time.Second)
	}
}
