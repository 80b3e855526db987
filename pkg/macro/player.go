package macro

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Taboulet/BiggerTask/pkg/input"
	"github.com/Taboulet/BiggerTask/util"
)

// Playback errors surfaced before an engine run starts.
var (
	ErrNothingToPlay = errors.New("no events to play")
	ErrInvalidSpeed  = errors.New("speed must be positive")
)

const (
	// tapDelay keeps a recorded press-release pair visibly apart.
	tapDelay = 15 * time.Millisecond
	// autoReleaseDelay closes out a press that has no recorded release.
	autoReleaseDelay = 30 * time.Millisecond
	// Buttons 1..safetyButtonMax are unconditionally released when a run
	// ends, whatever the log contained.
	safetyButtonMax = 7
)

// Player replays an event log snapshot against the live input subsystem.
// Events are dispatched strictly in log order; the tap-shaping rule depends
// on lookahead to the next event.
type Player struct {
	open     input.OpenFunc
	onStatus func(string)

	events []Event
	speed  float64
	loops  int // 0 means infinite

	running    *util.SafeFlag
	stopc      chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
	dispatched *util.SafeCounter
}

// NewPlayer creates a playback engine over a snapshot of the log. loops of 0
// replays until stopped.
func NewPlayer(open input.OpenFunc, events []Event, speed float64, loops int, onStatus func(string)) *Player {
	return &Player{
		open:       open,
		onStatus:   onStatus,
		events:     CloneEvents(events),
		speed:      speed,
		loops:      loops,
		running:    util.NewSafeFlag(),
		stopc:      make(chan struct{}),
		done:       make(chan struct{}),
		dispatched: util.NewSafeCounter(),
	}
}

// Start validates inputs, opens the backend, and begins replay. An empty log
// or invalid speed is rejected before any backend session is opened.
func (p *Player) Start() error {
	if len(p.events) == 0 {
		return ErrNothingToPlay
	}
	if p.speed <= 0 {
		return ErrInvalidSpeed
	}
	conn, err := p.open(input.ScopeInject)
	if err != nil {
		// Wait must never block on an engine that failed to start.
		close(p.done)
		return fmt.Errorf("cannot start playback: %w", err)
	}
	p.running.Set(true)
	go p.run(conn)
	return nil
}

// Stop cancels the run. The remaining events of the current loop and the
// remaining loops are abandoned; the scheduled sleep returns promptly.
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		p.running.Set(false)
		close(p.stopc)
	})
}

// Running reports whether the replay loop is still live.
func (p *Player) Running() bool {
	return p.running.Value()
}

// Wait blocks until the replay loop has exited and resources are released.
func (p *Player) Wait() {
	<-p.done
}

// Dispatched returns the number of log events injected so far.
func (p *Player) Dispatched() int {
	return p.dispatched.Value()
}

func (p *Player) status(s string) {
	if p.onStatus != nil {
		p.onStatus(s)
	}
}

// sleepUntil blocks until the target instant or a stop request, whichever
// comes first. Returns false when the run should abandon.
func (p *Player) sleepUntil(target time.Time) bool {
	d := time.Until(target)
	if d <= 0 {
		return p.running.Value()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return p.running.Value()
	case <-p.stopc:
		return false
	}
}

// resolve maps a recorded mouse event to current absolute coordinates. When
// the recorded monitor still exists, the position is recomputed from its
// current origin; otherwise the recorded absolute position is used verbatim.
func resolve(dir *Directory, e Event) (x, y int, viaMonitor bool) {
	if e.Monitor != "" {
		if m, ok := dir.FindByName(e.Monitor); ok {
			return m.X + e.RelX, m.Y + e.RelY, true
		}
	}
	return e.X, e.Y, false
}

// nextIsRelease reports whether the event following index i releases the
// same button.
func nextIsRelease(events []Event, i, button int) bool {
	if i+1 >= len(events) {
		return false
	}
	next := events[i+1]
	return next.Type == MouseButton && next.Button == button && !next.Pressed
}

func (p *Player) run(conn input.Conn) {
	defer close(p.done)
	defer conn.Close()

	dir := NewDirectory(conn)
	if p.loops == 0 {
		p.status(fmt.Sprintf("Playing (infinite loops, speed x%g)...", p.speed))
	} else {
		p.status(fmt.Sprintf("Playing (%d loops, speed x%g)...", p.loops, p.speed))
	}

	for k := 0; (p.loops == 0 || k < p.loops) && p.running.Value(); k++ {
		start := time.Now()
		for i := 0; i < len(p.events) && p.running.Value(); i++ {
			e := p.events[i]

			target := start.Add(time.Duration(float64(e.T) / p.speed * float64(time.Millisecond)))
			if !p.sleepUntil(target) {
				break
			}

			switch e.Type {
			case MouseMove:
				x, y, _ := resolve(dir, e)
				conn.MoveTo(x, y)

			case MouseButton:
				x, y, viaMonitor := resolve(dir, e)
				if viaMonitor {
					// Re-position first so the click lands correctly even
					// if the layout changed since capture.
					conn.MoveTo(x, y)
				}
				conn.Button(e.Button, e.Pressed)
				if e.Pressed {
					if nextIsRelease(p.events, i, e.Button) {
						time.Sleep(tapDelay)
					} else {
						// No recorded release follows; never leave the
						// button physically down.
						time.Sleep(autoReleaseDelay)
						conn.Button(e.Button, false)
					}
				}

			case Key:
				conn.Key(e.Keycode, e.Pressed)
			}
			p.dispatched.Increment()
		}
	}

	// Defensive: the host must never be left with a stuck button, whatever
	// state the run ended in.
	for b := 1; b <= safetyButtonMax; b++ {
		conn.Button(b, false)
	}

	if p.running.Value() {
		p.status("Playback finished.")
	} else {
		p.status("Playback stopped.")
	}
	p.running.Set(false)
}
