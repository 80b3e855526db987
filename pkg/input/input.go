// Package input abstracts the host's raw input subsystem: reading
// device-level motion/button/key notifications regardless of window focus,
// querying the pointer and monitor layout, and injecting synthesized events.
//
// The core engines are written against Conn; concrete backends live in the
// per-platform files of this package.
package input

import "errors"

// ErrUnavailable is returned when the input backend cannot be opened or a
// required capability is missing. Callers treat it as a reported, non-fatal
// condition.
var ErrUnavailable = errors.New("input backend unavailable")

// EventKind discriminates raw notifications.
type EventKind int

// Raw notification kinds.
const (
	Motion EventKind = iota
	ButtonPress
	ButtonRelease
	KeyPress
	KeyRelease
)

// RawEvent is one device-level notification. Motion events carry no
// coordinates; the pointer position is queried separately so that capture
// always records the settled absolute position.
type RawEvent struct {
	Kind    EventKind
	Button  int
	Keycode uint32
}

// Monitor describes one connected output's placement in the global desktop
// coordinate space at query time.
type Monitor struct {
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside [X,X+W) x [Y,Y+H).
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// Scope selects which raw notifications a connection subscribes to.
type Scope int

// Connection scopes.
const (
	// ScopeAll subscribes to motion, button and key notifications for all
	// master devices. Used by the capture engine.
	ScopeAll Scope = iota
	// ScopeKeys subscribes to key notifications only. Used by the hotkey
	// detector and the combo capture dialog.
	ScopeKeys
	// ScopeInject subscribes to nothing; the connection is used for
	// injection and layout queries only. Used by the playback engine.
	ScopeInject
)

// Conn is one connection to the input backend. A Conn is not safe for
// concurrent use; each worker owns its own and closes it when its loop
// exits.
type Conn interface {
	// Poll returns the next pending raw notification without blocking.
	// ok is false when nothing is pending; callers idle briefly and retry.
	Poll() (ev RawEvent, ok bool)

	// Pointer returns the current absolute pointer position.
	Pointer() (x, y int, err error)

	// Monitors enumerates the currently connected, active outputs. The
	// enumeration order is stable for a fixed layout.
	Monitors() ([]Monitor, error)

	// MoveTo injects an absolute motion event.
	MoveTo(x, y int) error

	// Button injects a button press or release.
	Button(button int, press bool) error

	// Key injects a key press or release for a device keycode.
	Key(keycode uint32, press bool) error

	Close() error
}

// OpenFunc opens a backend connection with the given scope. The engines take
// an OpenFunc so tests can substitute a fake backend.
type OpenFunc func(Scope) (Conn, error)
