package x11

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"trackme/internal/probe"
)

// Prober queries the X server for the active window via EWMH, with ICCCM
// fallbacks for older window managers.
type Prober struct {
	x *xgbutil.XUtil
}

func New() (*Prober, error) {
	x, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	// _NET_ACTIVE_WINDOW and _NET_WM_NAME need EWMH support.
	if _, err := ewmh.CurrentDesktopGet(x); err != nil {
		log.Printf("Warning: EWMH potentially not supported by window manager: %v", err)
	}

	return &Prober{x: x}, nil
}

// ActiveWindow resolves the focused window. The X round-trips run in a
// goroutine so a stalled server cannot block the poll loop past ctx.
func (p *Prober) ActiveWindow(ctx context.Context) (*probe.Info, error) {
	type result struct {
		info *probe.Info
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		info, err := p.query()
		ch <- result{info, err}
	}()

	select {
	case r := <-ch:
		return r.info, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("active window query: %w", ctx.Err())
	}
}

func (p *Prober) query() (*probe.Info, error) {
	winID, err := ewmh.ActiveWindowGet(p.x)
	if err != nil {
		return nil, fmt.Errorf("could not get active window ID: %w", err)
	}
	if winID == 0 {
		return nil, nil // nothing focused
	}

	// _NET_WM_NAME preferred, WM_NAME as fallback.
	title, err := ewmh.WmNameGet(p.x, winID)
	if err != nil || title == "" {
		title, err = icccm.WmNameGet(p.x, winID)
		if err != nil || title == "" {
			title = "Unknown Title"
		}
	}

	appName := "Unknown App"
	if hints, err := icccm.WmClassGet(p.x, winID); err == nil && hints != nil {
		appName = hints.Class
	}

	return &probe.Info{
		AppName: appName,
		Title:   title,
		URL:     urlFromTitle(appName, title),
	}, nil
}

var (
	browserRe  = regexp.MustCompile(`(?i)^(firefox|mozilla firefox|google[- ]chrome|chrome|chromium|microsoft edge|edge|safari)`)
	titleURLRe = regexp.MustCompile(`https?://\S+`)
)

// urlFromTitle recovers a URL for browser windows whose title embeds one
// (URL-in-title extensions do this). X11 itself exposes no URL property.
func urlFromTitle(appName, title string) string {
	if !browserRe.MatchString(appName) {
		return ""
	}
	return titleURLRe.FindString(title)
}

func (p *Prober) Close() error {
	if p.x != nil && p.x.Conn() != nil {
		p.x.Conn().Close()
	}
	return nil
}
