package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trackme/internal/activity"
	"trackme/internal/storage"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dbPath string) storage.Store {
	return &SQLiteStore{dbPath: dbPath}
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS activity_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	device_id TEXT,
	device_type TEXT,
	app_name TEXT,
	app_bundle_id TEXT,
	window_title TEXT,
	url TEXT,
	auto_category TEXT,
	auto_project TEXT,
	productivity_score INTEGER,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	duration_seconds INTEGER,
	is_idle INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON activity_sessions (user_id, start_time);

CREATE TABLE IF NOT EXISTS manual_checkins (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	duration_minutes INTEGER,
	activity_type TEXT,
	activity_description TEXT,
	category TEXT,
	productivity_score INTEGER,
	is_meeting INTEGER NOT NULL DEFAULT 0,
	triggered_by TEXT,
	device_was_idle INTEGER NOT NULL DEFAULT 0,
	prompt_time DATETIME,
	response_time DATETIME
);
CREATE INDEX IF NOT EXISTS idx_checkins_user_start ON manual_checkins (user_id, start_time);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create db directory %s: %w", dir, err)
	}

	log.Printf("Initializing SQLite database at: %s", s.dbPath)
	db, err := sql.Open("sqlite3", s.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s.db = db

	// SQLite is best with a single writer connection.
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(5 * time.Minute)

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, createTablesSQL); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

const upsertSessionSQL = `
INSERT INTO activity_sessions (
	id, user_id, device_id, device_type, app_name, app_bundle_id,
	window_title, url, auto_category, auto_project, productivity_score,
	start_time, end_time, duration_seconds, is_idle
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	window_title = excluded.window_title,
	url = excluded.url,
	auto_category = excluded.auto_category,
	auto_project = excluded.auto_project,
	productivity_score = excluded.productivity_score,
	end_time = excluded.end_time,
	duration_seconds = excluded.duration_seconds,
	is_idle = excluded.is_idle`

func (s *SQLiteStore) UpsertSessions(ctx context.Context, sessions []activity.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSessionSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, sess := range sessions {
		var end any
		if !sess.EndTime.IsZero() {
			end = sess.EndTime
		}
		_, err := stmt.ExecContext(ctx,
			sess.ID, sess.UserID, sess.DeviceID, string(sess.DeviceType),
			sess.AppName, sess.BundleID, sess.WindowTitle, sess.URL,
			sess.Category, sess.Project, sess.Score,
			sess.StartTime, end, sess.DurationSec, sess.IsIdle)
		if err != nil {
			return fmt.Errorf("failed to upsert session %s: %w", sess.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertCheckIn(ctx context.Context, c activity.CheckIn) error {
	query := `INSERT INTO manual_checkins (
		id, user_id, start_time, end_time, duration_minutes, activity_type,
		activity_description, category, productivity_score, is_meeting,
		triggered_by, device_was_idle, prompt_time, response_time
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.StartTime, c.EndTime, c.DurationMin, c.ActivityType,
		c.Description, c.Category, c.Score, c.IsMeeting,
		string(c.TriggeredBy), c.DeviceWasIdle, c.PromptTime, c.ResponseTime)
	if err != nil {
		return fmt.Errorf("failed to insert check-in: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSessions(ctx context.Context, userID string, start, end time.Time) ([]activity.Session, error) {
	query := `SELECT id, user_id, device_id, device_type, app_name, app_bundle_id,
		window_title, url, auto_category, auto_project, productivity_score,
		start_time, end_time, duration_seconds, is_idle
	FROM activity_sessions
	WHERE user_id = ? AND start_time >= ? AND start_time <= ?
	ORDER BY start_time ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []activity.Session
	for rows.Next() {
		var sess activity.Session
		var deviceID, deviceType, appName, bundleID sql.NullString
		var title, url, cat, project sql.NullString
		var score, duration sql.NullInt64
		var endTime sql.NullTime

		if err := rows.Scan(&sess.ID, &sess.UserID, &deviceID, &deviceType,
			&appName, &bundleID, &title, &url, &cat, &project, &score,
			&sess.StartTime, &endTime, &duration, &sess.IsIdle); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sess.DeviceID = deviceID.String
		sess.DeviceType = activity.DeviceType(deviceType.String)
		sess.AppName = appName.String
		sess.BundleID = bundleID.String
		sess.WindowTitle = title.String
		sess.URL = url.String
		sess.Category = cat.String
		sess.Project = project.String
		sess.Score = int(score.Int64)
		sess.EndTime = endTime.Time
		sess.DurationSec = int(duration.Int64)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

func (s *SQLiteStore) GetCheckIns(ctx context.Context, userID string, start, end time.Time) ([]activity.CheckIn, error) {
	query := `SELECT id, user_id, start_time, end_time, duration_minutes,
		activity_type, activity_description, category, productivity_score,
		is_meeting, triggered_by, device_was_idle, prompt_time, response_time
	FROM manual_checkins
	WHERE user_id = ? AND start_time >= ? AND start_time <= ?
	ORDER BY start_time ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var checkins []activity.CheckIn
	for rows.Next() {
		var c activity.CheckIn
		var actType, desc, cat, trigger sql.NullString
		var durMin, score sql.NullInt64
		var promptTime, responseTime sql.NullTime

		if err := rows.Scan(&c.ID, &c.UserID, &c.StartTime, &c.EndTime,
			&durMin, &actType, &desc, &cat, &score, &c.IsMeeting,
			&trigger, &c.DeviceWasIdle, &promptTime, &responseTime); err != nil {
			return nil, fmt.Errorf("failed to scan check-in row: %w", err)
		}
		c.DurationMin = int(durMin.Int64)
		c.ActivityType = actType.String
		c.Description = desc.String
		c.Category = cat.String
		c.Score = int(score.Int64)
		c.TriggeredBy = activity.TriggerType(trigger.String)
		c.PromptTime = promptTime.Time
		c.ResponseTime = responseTime.Time
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-in rows: %w", err)
	}
	return checkins, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		log.Println("Closing database connection.")
		return s.db.Close()
	}
	return nil
}
