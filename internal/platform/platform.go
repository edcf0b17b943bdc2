// Package platform holds the operating-system collaborators of the bar:
// monitor enumeration, screen-space reservation and opening links.
package platform

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnsupported is returned where the OS has no screen-space reservation.
var ErrUnsupported = errors.New("screen reservation not supported on this platform")

type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Monitor is a read-only snapshot of one display and its work area (the part
// not reserved by taskbars and other app bars).
type Monitor struct {
	Bounds Rect
	Work   Rect
}

// Display is the OS window-system contract the bar depends on.
type Display interface {
	// Monitors lists displays ordered left to right, then top to bottom.
	Monitors() ([]Monitor, error)
	// BarWindow returns the handle of the window hosting the bar.
	BarWindow() (uintptr, error)
	// ReserveTopStrip reserves height pixels at the top of m's work area for
	// window and returns the rectangle granted by the OS.
	ReserveTopStrip(window uintptr, m Monitor, height int) (Rect, error)
	// ReleaseReservation removes window's reservation.
	ReleaseReservation(window uintptr) error
	// Place moves window to r.
	Place(window uintptr, r Rect) error
}

// PickMonitor returns the monitor at index, clamped to the available range.
func PickMonitor(monitors []Monitor, index int) (Monitor, bool) {
	if len(monitors) == 0 {
		return Monitor{}, false
	}
	index = max(0, min(index, len(monitors)-1))
	return monitors[index], true
}

// Dock positions the bar window at the top of the chosen monitor, reserving
// the strip when reserve is set. The returned release func removes the
// reservation; it is safe to call on every path and ignores OS errors.
func Dock(d Display, monitorIndex, height int, reserve bool, logger *slog.Logger) (Rect, func(), error) {
	noop := func() {}

	window, err := d.BarWindow()
	if err != nil {
		return Rect{}, noop, fmt.Errorf("bar window: %w", err)
	}

	monitors, err := d.Monitors()
	if err != nil {
		return Rect{}, noop, fmt.Errorf("enumerate monitors: %w", err)
	}
	m, ok := PickMonitor(monitors, monitorIndex)
	if !ok {
		logger.Warn("no monitors reported, leaving window in place")
		return Rect{}, noop, nil
	}

	var bar Rect
	release := noop
	if reserve {
		bar, err = d.ReserveTopStrip(window, m, height)
		if err != nil {
			return Rect{}, noop, fmt.Errorf("reserve top strip: %w", err)
		}
		release = func() {
			if err := d.ReleaseReservation(window); err != nil {
				logger.Debug("release reservation failed", "err", err)
			}
		}
	} else {
		bar = Rect{Left: m.Bounds.Left, Top: m.Bounds.Top, Right: m.Bounds.Right, Bottom: m.Bounds.Top + height}
	}

	if err := d.Place(window, bar); err != nil {
		logger.Warn("move bar window failed", "err", err)
	}
	logger.Info("bar docked", "left", bar.Left, "top", bar.Top, "width", bar.Width(), "height", bar.Height(), "reserved", reserve)
	return bar, release, nil
}
