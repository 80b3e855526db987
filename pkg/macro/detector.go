package macro

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/pkg/input"
	"github.com/Taboulet/BiggerTask/util"
	"github.com/Taboulet/BiggerTask/util/log"
)

// Detector watches the raw key stream for the configured hotkey combos. It
// runs for the lifetime of the process on its own backend connection,
// independent of any capture session.
//
// Matching is set equality over the currently-held keys: press order and
// timing do not matter, and a notification fires on the transition into the
// exact set, not repeatedly while it is held. Injected key events are part
// of the raw stream too, so a macro that replays the stop combo stops its
// own playback.
type Detector struct {
	open input.OpenFunc

	mu     sync.RWMutex
	combos map[config.ComboSlot][]uint32 // sorted

	matches chan config.ComboSlot
	running *util.SafeFlag
	done    chan struct{}
}

// NewDetector creates a hotkey detector. Combos are bound with SetCombo.
func NewDetector(open input.OpenFunc) *Detector {
	return &Detector{
		open:    open,
		combos:  make(map[config.ComboSlot][]uint32),
		matches: make(chan config.ComboSlot, 8),
		running: util.NewSafeFlag(),
		done:    make(chan struct{}),
	}
}

// SetCombo binds a slot to a key set. Empty keys clears the binding. Safe to
// call while the detector is running.
func (d *Detector) SetCombo(slot config.ComboSlot, keys []uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(keys) == 0 {
		delete(d.combos, slot)
		return
	}
	sorted := append([]uint32(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	d.combos[slot] = sorted
}

// Matches delivers one notification per combo fire, identifying the slot.
func (d *Detector) Matches() <-chan config.ComboSlot {
	return d.matches
}

// Start opens the backend key stream and begins watching.
func (d *Detector) Start() error {
	conn, err := d.open(input.ScopeKeys)
	if err != nil {
		// Wait must never block on a detector that failed to start.
		close(d.done)
		return fmt.Errorf("cannot start hotkey detector: %w", err)
	}
	d.running.Set(true)
	go d.run(conn)
	return nil
}

// Stop requests the watch loop to exit.
func (d *Detector) Stop() {
	d.running.Set(false)
}

// Wait blocks until the watch loop has exited and the connection is closed.
func (d *Detector) Wait() {
	<-d.done
}

func (d *Detector) run(conn input.Conn) {
	defer close(d.done)
	defer conn.Close()

	pressed := make(map[uint32]bool)

	for d.running.Value() {
		ev, ok := conn.Poll()
		if !ok {
			time.Sleep(idleSleep)
			continue
		}
		switch ev.Kind {
		case input.KeyPress:
			// Key auto-repeat delivers raw presses for a held key; only a
			// genuine set mutation triggers a comparison.
			if pressed[ev.Keycode] {
				continue
			}
			pressed[ev.Keycode] = true
			d.check(pressed)
		case input.KeyRelease:
			if !pressed[ev.Keycode] {
				continue
			}
			delete(pressed, ev.Keycode)
			d.check(pressed)
		}
	}
}

// check compares the held set against every configured combo and emits a
// notification on an exact match.
func (d *Detector) check(pressed map[uint32]bool) {
	held := make([]uint32, 0, len(pressed))
	for k := range pressed {
		held = append(held, k)
	}
	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })

	d.mu.RLock()
	defer d.mu.RUnlock()
	for slot, combo := range d.combos {
		if equalKeys(held, combo) {
			select {
			case d.matches <- slot:
			default:
				log.Debugf("dropping hotkey match for %v: listener not draining", slot)
			}
		}
	}
}

// equalKeys compares two sorted key sets.
func equalKeys(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
