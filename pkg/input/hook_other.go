//go:build !linux

package input

import (
	"fmt"
	"sync"

	"github.com/kbinani/screenshot"
	hook "github.com/robotn/gohook"
)

// Portable backend built on gohook's global input hook and kbinani/screenshot
// display enumeration. The hook delivers capture-side notifications only, so
// ScopeInject connections are refused: playback is unsupported off X11 and
// degrades to a reported backend-unavailable status. Keycodes are the host's
// raw virtual-key codes.

// gohook exposes a single process-wide event stream, so connections fan out
// from a shared hub rather than owning a stream each.
var hookHub = &hub{subs: make(map[*hookConn]chan RawEvent)}

type hub struct {
	mu      sync.Mutex
	subs    map[*hookConn]chan RawEvent
	running bool
	lastX   int
	lastY   int
}

func (h *hub) subscribe(c *hookConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[c] = c.events
	if !h.running {
		h.running = true
		go h.pump(hook.Start())
	}
}

func (h *hub) unsubscribe(c *hookConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, c)
	if len(h.subs) == 0 && h.running {
		h.running = false
		hook.End()
	}
}

func (h *hub) pump(events chan hook.Event) {
	for ev := range events {
		raw, ok := translate(ev)
		if !ok {
			continue
		}
		h.mu.Lock()
		if raw.Kind == Motion {
			h.lastX, h.lastY = int(ev.X), int(ev.Y)
		}
		for c, ch := range h.subs {
			if c.scope == ScopeKeys && raw.Kind != KeyPress && raw.Kind != KeyRelease {
				continue
			}
			select {
			case ch <- raw:
			default: // subscriber is draining too slowly, drop
			}
		}
		h.mu.Unlock()
	}
}

func (h *hub) pointer() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastX, h.lastY
}

func translate(ev hook.Event) (RawEvent, bool) {
	switch ev.Kind {
	case hook.MouseMove, hook.MouseDrag:
		return RawEvent{Kind: Motion}, true
	case hook.MouseDown:
		return RawEvent{Kind: ButtonPress, Button: int(ev.Button)}, true
	case hook.MouseUp:
		return RawEvent{Kind: ButtonRelease, Button: int(ev.Button)}, true
	case hook.KeyDown:
		return RawEvent{Kind: KeyPress, Keycode: uint32(ev.Rawcode)}, true
	case hook.KeyUp:
		return RawEvent{Kind: KeyRelease, Keycode: uint32(ev.Rawcode)}, true
	}
	return RawEvent{}, false
}

type hookConn struct {
	scope  Scope
	events chan RawEvent
	closed bool
}

// Open subscribes a connection to the global hook. ScopeInject is not
// supported by this backend.
func Open(scope Scope) (Conn, error) {
	if scope == ScopeInject {
		return nil, fmt.Errorf("%w: event injection requires the X11 backend", ErrUnavailable)
	}
	c := &hookConn{scope: scope, events: make(chan RawEvent, 256)}
	hookHub.subscribe(c)
	return c, nil
}

func (c *hookConn) Poll() (RawEvent, bool) {
	select {
	case ev := <-c.events:
		return ev, true
	default:
		return RawEvent{}, false
	}
}

func (c *hookConn) Pointer() (int, int, error) {
	x, y := hookHub.pointer()
	return x, y, nil
}

func (c *hookConn) Monitors() ([]Monitor, error) {
	n := screenshot.NumActiveDisplays()
	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, Monitor{
			Name:   fmt.Sprintf("DISPLAY-%d", i),
			X:      bounds.Min.X,
			Y:      bounds.Min.Y,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}
	return monitors, nil
}

func (c *hookConn) MoveTo(x, y int) error {
	return fmt.Errorf("%w: event injection requires the X11 backend", ErrUnavailable)
}

func (c *hookConn) Button(button int, press bool) error {
	return fmt.Errorf("%w: event injection requires the X11 backend", ErrUnavailable)
}

func (c *hookConn) Key(keycode uint32, press bool) error {
	return fmt.Errorf("%w: event injection requires the X11 backend", ErrUnavailable)
}

func (c *hookConn) Close() error {
	if !c.closed {
		c.closed = true
		hookHub.unsubscribe(c)
	}
	return nil
}
