package macro

import "github.com/Taboulet/BiggerTask/pkg/input"

// MonitorSource is the slice of a backend connection the directory needs.
type MonitorSource interface {
	Monitors() ([]input.Monitor, error)
}

// Directory answers monitor lookups against the live layout. It is stateless
// per call: the layout is re-queried every time because it can change between
// capture and replay.
type Directory struct {
	source MonitorSource
}

// NewDirectory creates a directory over a backend connection.
func NewDirectory(source MonitorSource) *Directory {
	return &Directory{source: source}
}

// FindContaining returns the first connected output whose rectangle contains
// the point. The backend's enumeration order is stable for a fixed layout, so
// repeated queries at the same point agree. ok is false when no output
// matches or the layout cannot be queried.
func (d *Directory) FindContaining(x, y int) (input.Monitor, bool) {
	monitors, err := d.source.Monitors()
	if err != nil {
		return input.Monitor{}, false
	}
	for _, m := range monitors {
		if m.Contains(x, y) {
			return m, true
		}
	}
	return input.Monitor{}, false
}

// FindByName returns the output with the given name. ok is false when the
// monitor no longer exists; callers fall back to recorded absolute
// coordinates rather than failing.
func (d *Directory) FindByName(name string) (input.Monitor, bool) {
	monitors, err := d.source.Monitors()
	if err != nil {
		return input.Monitor{}, false
	}
	for _, m := range monitors {
		if m.Name == name {
			return m, true
		}
	}
	return input.Monitor{}, false
}
