package macro

import (
	"fmt"
	"sort"
	"time"

	"github.com/Taboulet/BiggerTask/pkg/input"
	"github.com/Taboulet/BiggerTask/util"
	"github.com/Taboulet/BiggerTask/util/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// idleSleep bounds both CPU usage while no events are pending and the
	// latency of a stop request.
	idleSleep = 10 * time.Millisecond

	// motionInterval caps how often mouse-move events are recorded so a
	// high-rate pointer cannot balloon the log.
	motionInterval = 15 * time.Millisecond
)

// Recorder captures raw input into an event log. One instance per capture
// session; it owns its backend connection for the lifetime of the run.
type Recorder struct {
	open     input.OpenFunc
	onStatus func(string)

	running *util.SafeFlag
	done    chan struct{}
	limiter *rate.Limiter

	session string
	events  []Event
}

// NewRecorder creates a capture engine. onStatus may be nil.
func NewRecorder(open input.OpenFunc, onStatus func(string)) *Recorder {
	return &Recorder{
		open:     open,
		onStatus: onStatus,
		running:  util.NewSafeFlag(),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(rate.Every(motionInterval), 1),
	}
}

// Start opens the backend and begins capturing. A backend failure is
// returned immediately and no capture starts.
func (r *Recorder) Start() error {
	conn, err := r.open(input.ScopeAll)
	if err != nil {
		// Wait must never block on an engine that failed to start.
		close(r.done)
		return fmt.Errorf("cannot start capture: %w", err)
	}
	r.session = uuid.New().String()[:8]
	r.running.Set(true)
	go r.run(conn)
	return nil
}

// Stop requests the capture loop to finish. The loop drains within the idle
// sleep bound; call Wait to collect the log.
func (r *Recorder) Stop() {
	r.running.Set(false)
}

// Running reports whether the capture loop is still live.
func (r *Recorder) Running() bool {
	return r.running.Value()
}

// Wait blocks until the capture loop has exited and returns the recorded
// log. The backend connection is released before Wait returns.
func (r *Recorder) Wait() []Event {
	<-r.done
	return r.events
}

func (r *Recorder) status(s string) {
	if r.onStatus != nil {
		r.onStatus(s)
	}
}

func (r *Recorder) run(conn input.Conn) {
	defer close(r.done)
	defer conn.Close()

	dir := NewDirectory(conn)
	start := time.Now()
	lastX, lastY := -1, -1
	held := make(map[int]bool)
	events := make([]Event, 0, 256)

	log.Debugf("capture session %s started", r.session)
	r.status("Recording...")

	for r.running.Value() {
		ev, ok := conn.Poll()
		if !ok {
			time.Sleep(idleSleep)
			continue
		}
		t := time.Since(start).Milliseconds()

		switch ev.Kind {
		case input.Motion:
			x, y, err := conn.Pointer()
			if err != nil {
				continue
			}
			if x == lastX && y == lastY {
				continue
			}
			if !r.limiter.Allow() {
				continue
			}
			e := Event{Type: MouseMove, T: t, X: x, Y: y}
			if m, ok := dir.FindContaining(x, y); ok {
				e.Monitor = m.Name
				e.RelX = x - m.X
				e.RelY = y - m.Y
			}
			events = append(events, e)
			lastX, lastY = x, y

		case input.ButtonPress, input.ButtonRelease:
			press := ev.Kind == input.ButtonPress
			if press {
				held[ev.Button] = true
			} else {
				delete(held, ev.Button)
			}
			x, y, err := conn.Pointer()
			if err != nil {
				x, y = lastX, lastY
			}
			e := Event{Type: MouseButton, T: t, X: x, Y: y, Button: ev.Button, Pressed: press}
			if m, ok := dir.FindContaining(x, y); ok {
				e.Monitor = m.Name
				e.RelX = x - m.X
				e.RelY = y - m.Y
			}
			events = append(events, e)

		case input.KeyPress, input.KeyRelease:
			events = append(events, Event{
				Type:    Key,
				T:       t,
				Keycode: ev.Keycode,
				Pressed: ev.Kind == input.KeyPress,
			})
		}
	}

	// A button still held when recording stops would leave the log with an
	// unmatched press and corrupt replay; close them out at the stop time.
	if len(held) > 0 {
		x, y, err := conn.Pointer()
		if err != nil {
			x, y = lastX, lastY
		}
		t := time.Since(start).Milliseconds()
		var monitor string
		var relX, relY int
		if m, ok := dir.FindContaining(x, y); ok {
			monitor = m.Name
			relX = x - m.X
			relY = y - m.Y
		}
		buttons := make([]int, 0, len(held))
		for b := range held {
			buttons = append(buttons, b)
		}
		sort.Ints(buttons)
		for _, b := range buttons {
			events = append(events, Event{
				Type: MouseButton, T: t,
				X: x, Y: y, Button: b, Pressed: false,
				Monitor: monitor, RelX: relX, RelY: relY,
			})
		}
	}

	r.events = events
	log.Debugf("capture session %s recorded %d events", r.session, len(events))
	r.status(fmt.Sprintf("Recorded %d events", len(events)))
}
