// Package macro implements the capture/playback core: the recorded event
// model, the .recq codec, the capture and playback engines, the hotkey combo
// detector, and the controller that orchestrates them.
package macro

// EventType discriminates recorded events.
type EventType int

// Recorded event types.
const (
	MouseMove EventType = iota
	MouseButton
	Key
)

// Event is one recorded input event. T is the offset in milliseconds from
// the start of the recording session, taken from a monotonic clock. Mouse
// events carry both the absolute position and, when a monitor contained the
// point at capture time, that monitor's name and the position relative to
// its origin. The absolute coordinates are the fallback when the monitor no
// longer exists at playback time.
type Event struct {
	Type    EventType
	T       int64
	X, Y    int
	Button  int
	Pressed bool
	Keycode uint32

	Monitor    string
	RelX, RelY int
}

// CloneEvents returns a copy of the log. The playback engine works on a
// snapshot so the controller's log can be replaced while a run drains.
func CloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
