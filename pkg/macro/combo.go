package macro

import (
	"fmt"
	"sync"
	"time"

	"github.com/Taboulet/BiggerTask/pkg/input"
	"github.com/Taboulet/BiggerTask/util"
)

const (
	// comboMaxKeys caps a combo; reaching it stops listening immediately.
	comboMaxKeys = 3
	// comboIdleTimeout restarts after each accepted key; when it elapses the
	// recorder stops listening and the collected sequence awaits an explicit
	// save.
	comboIdleTimeout = time.Second
)

// ComboRecorder collects up to three unique keycodes from the raw key
// stream, in press order, for binding a hotkey combo. It is distinct from
// the Detector: it has a timeout-commit protocol and de-duplicates keys
// within the combo being built.
//
// The start-recording slot is captured with idleCommit disabled: that combo
// doubles as the trigger that starts a capture session, so it must never
// commit behind the user's back.
type ComboRecorder struct {
	open       input.OpenFunc
	idleCommit bool
	onChange   func(keys []uint32, listening bool)

	mu        sync.Mutex
	keys      []uint32
	listening bool

	running *util.SafeFlag
	done    chan struct{}
}

// NewComboRecorder creates a combo capture session. onChange is invoked
// after every accepted key and when listening stops; it may be nil.
func NewComboRecorder(open input.OpenFunc, idleCommit bool, onChange func([]uint32, bool)) *ComboRecorder {
	return &ComboRecorder{
		open:       open,
		idleCommit: idleCommit,
		onChange:   onChange,
		running:    util.NewSafeFlag(),
		done:       make(chan struct{}),
	}
}

// Start opens the backend key stream and begins collecting.
func (cr *ComboRecorder) Start() error {
	conn, err := cr.open(input.ScopeKeys)
	if err != nil {
		// Commit and Cancel must never block on a session that failed to
		// start.
		close(cr.done)
		return fmt.Errorf("cannot capture combo: %w", err)
	}
	cr.mu.Lock()
	cr.listening = true
	cr.mu.Unlock()
	cr.running.Set(true)
	go cr.run(conn)
	return nil
}

// Keys returns a snapshot of the sequence collected so far.
func (cr *ComboRecorder) Keys() []uint32 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return append([]uint32(nil), cr.keys...)
}

// Listening reports whether further presses are still being accepted.
func (cr *ComboRecorder) Listening() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.listening
}

// Commit stops the session and returns the collected sequence, however
// short. An empty result means the binding should be cleared.
func (cr *ComboRecorder) Commit() []uint32 {
	cr.stop()
	return cr.Keys()
}

// Cancel stops the session and discards the collected sequence.
func (cr *ComboRecorder) Cancel() {
	cr.stop()
	cr.mu.Lock()
	cr.keys = nil
	cr.mu.Unlock()
}

func (cr *ComboRecorder) stop() {
	cr.running.Set(false)
	<-cr.done
}

func (cr *ComboRecorder) run(conn input.Conn) {
	defer close(cr.done)
	defer conn.Close()

	var deadline time.Time

	for cr.running.Value() {
		ev, ok := conn.Poll()
		if !ok {
			if cr.idleCommit && !deadline.IsZero() && time.Now().After(deadline) {
				break
			}
			time.Sleep(idleSleep)
			continue
		}
		if ev.Kind != input.KeyPress {
			continue
		}

		cr.mu.Lock()
		if containsKey(cr.keys, ev.Keycode) {
			// Duplicate within the combo being built; rejected.
			cr.mu.Unlock()
			continue
		}
		cr.keys = append(cr.keys, ev.Keycode)
		keys := append([]uint32(nil), cr.keys...)
		full := len(cr.keys) >= comboMaxKeys
		cr.mu.Unlock()

		deadline = time.Now().Add(comboIdleTimeout)
		if full {
			break
		}
		cr.notify(keys, true)
	}

	cr.mu.Lock()
	cr.listening = false
	keys := append([]uint32(nil), cr.keys...)
	cr.mu.Unlock()
	cr.notify(keys, false)
}

func (cr *ComboRecorder) notify(keys []uint32, listening bool) {
	if cr.onChange != nil {
		cr.onChange(keys, listening)
	}
}

func containsKey(keys []uint32, k uint32) bool {
	for _, have := range keys {
		if have == k {
			return true
		}
	}
	return false
}
