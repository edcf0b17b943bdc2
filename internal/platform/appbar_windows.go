//go:build windows

package platform

import (
	"fmt"
	"sort"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	abmNew      = 0x00000000
	abmRemove   = 0x00000001
	abmQueryPos = 0x00000002
	abmSetPos   = 0x00000003

	abeTop = 1
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procMoveWindow          = user32.NewProc("MoveWindow")
	procSHAppBarMessage     = shell32.NewProc("SHAppBarMessage")
	procGetConsoleWindow    = kernel32.NewProc("GetConsoleWindow")
)

type appBarData struct {
	Size            uint32
	Window          windows.HWND
	CallbackMessage uint32
	Edge            uint32
	Rect            windows.Rect
	LParam          uintptr
}

type monitorInfo struct {
	Size    uint32
	Monitor windows.Rect
	Work    windows.Rect
	Flags   uint32
}

type windowsDisplay struct{}

// New returns the display collaborator for this OS.
func New() Display {
	return windowsDisplay{}
}

func toRect(r windows.Rect) Rect {
	return Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}
}

func (windowsDisplay) Monitors() ([]Monitor, error) {
	var monitors []Monitor

	cb := windows.NewCallback(func(hMonitor, hdc, lprc, lparam uintptr) uintptr {
		var mi monitorInfo
		mi.Size = uint32(unsafe.Sizeof(mi))
		if ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi))); ret != 0 {
			monitors = append(monitors, Monitor{Bounds: toRect(mi.Monitor), Work: toRect(mi.Work)})
		}
		return 1
	})

	if ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0); ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}

	sort.Slice(monitors, func(i, j int) bool {
		if monitors[i].Bounds.Left != monitors[j].Bounds.Left {
			return monitors[i].Bounds.Left < monitors[j].Bounds.Left
		}
		return monitors[i].Bounds.Top < monitors[j].Bounds.Top
	})
	return monitors, nil
}

func (windowsDisplay) BarWindow() (uintptr, error) {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return 0, fmt.Errorf("no console window attached")
	}
	return hwnd, nil
}

func appBarMessage(msg uint32, abd *appBarData) {
	procSHAppBarMessage.Call(uintptr(msg), uintptr(unsafe.Pointer(abd)))
}

func (windowsDisplay) ReserveTopStrip(window uintptr, m Monitor, height int) (Rect, error) {
	abd := appBarData{Window: windows.HWND(window)}
	abd.Size = uint32(unsafe.Sizeof(abd))

	if ret, _, err := procSHAppBarMessage.Call(abmNew, uintptr(unsafe.Pointer(&abd))); ret == 0 {
		return Rect{}, fmt.Errorf("register app bar: %w", err)
	}

	abd.Edge = abeTop
	abd.Rect = windows.Rect{
		Left:   int32(m.Work.Left),
		Top:    int32(m.Work.Top),
		Right:  int32(m.Work.Right),
		Bottom: int32(m.Work.Top + height),
	}
	appBarMessage(abmQueryPos, &abd)
	// QUERYPOS may move the top edge; keep the requested height.
	abd.Rect.Bottom = abd.Rect.Top + int32(height)
	appBarMessage(abmSetPos, &abd)

	return toRect(abd.Rect), nil
}

func (windowsDisplay) ReleaseReservation(window uintptr) error {
	abd := appBarData{Window: windows.HWND(window)}
	abd.Size = uint32(unsafe.Sizeof(abd))
	if ret, _, err := procSHAppBarMessage.Call(abmRemove, uintptr(unsafe.Pointer(&abd))); ret == 0 {
		return fmt.Errorf("remove app bar: %w", err)
	}
	return nil
}

func (windowsDisplay) Place(window uintptr, r Rect) error {
	ret, _, err := procMoveWindow.Call(window,
		uintptr(r.Left), uintptr(r.Top), uintptr(r.Width()), uintptr(r.Height()), 1)
	if ret == 0 {
		return fmt.Errorf("MoveWindow: %w", err)
	}
	return nil
}
