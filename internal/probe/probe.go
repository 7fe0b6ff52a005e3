package probe

import "context"

// Info describes the foreground window at one instant.
type Info struct {
	AppName  string
	BundleID string
	Title    string
	URL      string
}

// Probe is a point-in-time query for the foreground window. A nil Info
// with a nil error means no window currently has focus.
type Probe interface {
	ActiveWindow(ctx context.Context) (*Info, error)
	Close() error
}
