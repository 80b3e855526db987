package macro

import (
	"errors"
	"sync"
	"time"

	"github.com/Taboulet/BiggerTask/pkg/input"
)

// scriptStep is one raw notification plus the pointer position the backend
// reports once the step has been delivered.
type scriptStep struct {
	ev   input.RawEvent
	x, y int
}

// injection is one synthesized event recorded by the fake backend.
type injection struct {
	kind    string // "move", "button", "key"
	x, y    int
	button  int
	press   bool
	keycode uint32
	at      time.Time
}

// fakeConn is a scriptable backend connection shared by the engine tests.
type fakeConn struct {
	mu        sync.Mutex
	script    []scriptStep
	ptrX      int
	ptrY      int
	monitors  []input.Monitor
	injected  []injection
	closed    bool
	pollCount int
}

func (f *fakeConn) Poll() (input.RawEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCount++
	if len(f.script) == 0 {
		return input.RawEvent{}, false
	}
	step := f.script[0]
	f.script = f.script[1:]
	f.ptrX, f.ptrY = step.x, step.y
	return step.ev, true
}

func (f *fakeConn) Pointer() (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ptrX, f.ptrY, nil
}

func (f *fakeConn) Monitors() ([]input.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]input.Monitor(nil), f.monitors...), nil
}

func (f *fakeConn) MoveTo(x, y int) error {
	f.record(injection{kind: "move", x: x, y: y, at: time.Now()})
	return nil
}

func (f *fakeConn) Button(button int, press bool) error {
	f.record(injection{kind: "button", button: button, press: press, at: time.Now()})
	return nil
}

func (f *fakeConn) Key(keycode uint32, press bool) error {
	f.record(injection{kind: "key", keycode: keycode, press: press, at: time.Now()})
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) record(in injection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.injected = append(f.injected, in)
}

func (f *fakeConn) drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.script) == 0
}

func (f *fakeConn) injections() []injection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]injection(nil), f.injected...)
}

// fixedOpen returns an OpenFunc handing out the given connection.
func fixedOpen(conn *fakeConn) input.OpenFunc {
	return func(input.Scope) (input.Conn, error) {
		return conn, nil
	}
}

// failingOpen simulates a missing backend.
func failingOpen(input.Scope) (input.Conn, error) {
	return nil, errors.Join(input.ErrUnavailable, errors.New("no display"))
}

func keyDown(code uint32) input.RawEvent {
	return input.RawEvent{Kind: input.KeyPress, Keycode: code}
}

func keyUp(code uint32) input.RawEvent {
	return input.RawEvent{Kind: input.KeyRelease, Keycode: code}
}
