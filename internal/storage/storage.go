package storage

import (
	"context"
	"time"

	"trackme/internal/activity"
)

// Store is the durable backend for sessions and check-ins. It is treated
// as remote and fallible: UpsertSessions is keyed by session id so a batch
// may be redelivered safely after a transient failure.
type Store interface {
	Init(ctx context.Context) error
	UpsertSessions(ctx context.Context, sessions []activity.Session) error
	InsertCheckIn(ctx context.Context, c activity.CheckIn) error
	GetSessions(ctx context.Context, userID string, start, end time.Time) ([]activity.Session, error)
	GetCheckIns(ctx context.Context, userID string, start, end time.Time) ([]activity.CheckIn, error)
	Close() error
}
