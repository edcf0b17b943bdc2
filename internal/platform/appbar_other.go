//go:build !windows

package platform

type otherDisplay struct{}

// New returns the display collaborator for this OS. Outside Windows there is
// no app bar API; the terminal hosting the bar stays where the user put it.
func New() Display {
	return otherDisplay{}
}

func (otherDisplay) Monitors() ([]Monitor, error) { return nil, nil }

func (otherDisplay) BarWindow() (uintptr, error) { return 0, ErrUnsupported }

func (otherDisplay) ReserveTopStrip(uintptr, Monitor, int) (Rect, error) {
	return Rect{}, ErrUnsupported
}

func (otherDisplay) ReleaseReservation(uintptr) error { return ErrUnsupported }

func (otherDisplay) Place(uintptr, Rect) error { return ErrUnsupported }
