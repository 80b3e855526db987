//go:build linux

package input

/*
#cgo pkg-config: x11 xtst xi xrandr
#include <X11/Xlib.h>
#include <X11/extensions/XInput2.h>
#include <X11/extensions/XTest.h>
#include <X11/extensions/Xrandr.h>
#include <stdlib.h>
#include <string.h>

static Display* conn_open(const char* name) {
	return XOpenDisplay(name);
}

// Selects XInput2 raw events on the root window for all master devices.
// Returns the extension opcode, or -1 when XInput is missing, -2 when the
// server speaks XInput2 < 2.0.
static int conn_select_raw(Display* dpy, int keys_only) {
	int xi_opcode, event, error;
	if (!XQueryExtension(dpy, "XInputExtension", &xi_opcode, &event, &error)) {
		return -1;
	}
	int major = 2, minor = 0;
	if (XIQueryVersion(dpy, &major, &minor) != Success) {
		return -2;
	}

	Window root = DefaultRootWindow(dpy);
	XIEventMask mask;
	unsigned char m[XIMaskLen(XI_LASTEVENT)];
	memset(m, 0, sizeof(m));
	mask.deviceid = XIAllMasterDevices;
	mask.mask_len = sizeof(m);
	mask.mask = m;
	if (!keys_only) {
		XISetMask(m, XI_RawMotion);
		XISetMask(m, XI_RawButtonPress);
		XISetMask(m, XI_RawButtonRelease);
	}
	XISetMask(m, XI_RawKeyPress);
	XISetMask(m, XI_RawKeyRelease);
	XISelectEvents(dpy, root, &mask, 1);
	XFlush(dpy);
	return xi_opcode;
}

typedef struct {
	int kind;   // EventKind ordinal, -1 when the drained event was not ours
	int detail; // button number or keycode
} raw_event;

// Drains one queued X event. Returns 0 when none pending, 1 otherwise.
static int conn_poll(Display* dpy, int xi_opcode, raw_event* out) {
	out->kind = -1;
	if (XPending(dpy) == 0) {
		return 0;
	}
	XEvent ev;
	XNextEvent(dpy, &ev);
	if (ev.xcookie.type != GenericEvent || ev.xcookie.extension != xi_opcode) {
		return 1;
	}
	if (!XGetEventData(dpy, &ev.xcookie)) {
		return 1;
	}
	XIRawEvent* re = (XIRawEvent*)ev.xcookie.data;
	switch (ev.xcookie.evtype) {
	case XI_RawMotion:
		out->kind = 0;
		break;
	case XI_RawButtonPress:
		out->kind = 1;
		out->detail = re->detail;
		break;
	case XI_RawButtonRelease:
		out->kind = 2;
		out->detail = re->detail;
		break;
	case XI_RawKeyPress:
		out->kind = 3;
		out->detail = re->detail;
		break;
	case XI_RawKeyRelease:
		out->kind = 4;
		out->detail = re->detail;
		break;
	}
	XFreeEventData(dpy, &ev.xcookie);
	return 1;
}

static int conn_pointer(Display* dpy, int* x, int* y) {
	Window root = DefaultRootWindow(dpy);
	Window r, c;
	int rx, ry, wx, wy;
	unsigned int m;
	if (!XQueryPointer(dpy, root, &r, &c, &rx, &ry, &wx, &wy, &m)) {
		return -1;
	}
	*x = rx;
	*y = ry;
	return 0;
}

typedef struct {
	char name[128];
	int x, y, width, height;
} monitor_info;

static int conn_monitors(Display* dpy, monitor_info* out, int max) {
	Window root = DefaultRootWindow(dpy);
	XRRScreenResources* res = XRRGetScreenResourcesCurrent(dpy, root);
	if (!res) {
		return -1;
	}
	int n = 0;
	for (int i = 0; i < res->noutput && n < max; i++) {
		XRROutputInfo* output = XRRGetOutputInfo(dpy, res, res->outputs[i]);
		if (!output) {
			continue;
		}
		if (output->connection == RR_Connected && output->crtc) {
			XRRCrtcInfo* crtc = XRRGetCrtcInfo(dpy, res, output->crtc);
			if (crtc) {
				strncpy(out[n].name, output->name, sizeof(out[n].name)-1);
				out[n].name[sizeof(out[n].name)-1] = 0;
				out[n].x = crtc->x;
				out[n].y = crtc->y;
				out[n].width = (int)crtc->width;
				out[n].height = (int)crtc->height;
				n++;
				XRRFreeCrtcInfo(crtc);
			}
		}
		XRRFreeOutputInfo(output);
	}
	XRRFreeScreenResources(res);
	return n;
}

static void conn_move(Display* dpy, int x, int y) {
	XTestFakeMotionEvent(dpy, -1, x, y, 0);
	XFlush(dpy);
}

static void conn_button(Display* dpy, int button, int press) {
	XTestFakeButtonEvent(dpy, button, press, 0);
	XFlush(dpy);
}

static void conn_key(Display* dpy, unsigned int keycode, int press) {
	XTestFakeKeyEvent(dpy, keycode, press, 0);
	XFlush(dpy);
}
*/
import "C"
import "fmt"

const maxMonitors = 16

// x11Conn is one X display connection carrying an XInput2 raw-event
// subscription and the XTest/XRandR capabilities.
type x11Conn struct {
	dpy    *C.Display
	opcode C.int
}

// Open connects to the X server. Capture scopes subscribe to XInput2 raw
// events for all master devices; ScopeInject connections only inject and
// query.
func Open(scope Scope) (Conn, error) {
	dpy := C.conn_open(nil)
	if dpy == nil {
		return nil, fmt.Errorf("%w: failed to open X display", ErrUnavailable)
	}

	conn := &x11Conn{dpy: dpy, opcode: -1}
	if scope != ScopeInject {
		keysOnly := C.int(0)
		if scope == ScopeKeys {
			keysOnly = 1
		}
		opcode := C.conn_select_raw(dpy, keysOnly)
		switch opcode {
		case -1:
			conn.Close()
			return nil, fmt.Errorf("%w: XInput2 not available", ErrUnavailable)
		case -2:
			conn.Close()
			return nil, fmt.Errorf("%w: XInput2 < 2.0", ErrUnavailable)
		}
		conn.opcode = opcode
	}
	return conn, nil
}

func (c *x11Conn) Poll() (RawEvent, bool) {
	if c.opcode < 0 {
		return RawEvent{}, false
	}
	var out C.raw_event
	for {
		if C.conn_poll(c.dpy, c.opcode, &out) == 0 {
			return RawEvent{}, false
		}
		if out.kind < 0 {
			continue
		}
		ev := RawEvent{Kind: EventKind(out.kind)}
		switch ev.Kind {
		case ButtonPress, ButtonRelease:
			ev.Button = int(out.detail)
		case KeyPress, KeyRelease:
			ev.Keycode = uint32(out.detail)
		}
		return ev, true
	}
}

func (c *x11Conn) Pointer() (int, int, error) {
	var x, y C.int
	if C.conn_pointer(c.dpy, &x, &y) != 0 {
		return 0, 0, fmt.Errorf("failed to query pointer")
	}
	return int(x), int(y), nil
}

func (c *x11Conn) Monitors() ([]Monitor, error) {
	var out [maxMonitors]C.monitor_info
	n := C.conn_monitors(c.dpy, &out[0], maxMonitors)
	if n < 0 {
		return nil, fmt.Errorf("failed to query screen resources")
	}
	monitors := make([]Monitor, 0, int(n))
	for i := 0; i < int(n); i++ {
		monitors = append(monitors, Monitor{
			Name:   C.GoString(&out[i].name[0]),
			X:      int(out[i].x),
			Y:      int(out[i].y),
			Width:  int(out[i].width),
			Height: int(out[i].height),
		})
	}
	return monitors, nil
}

func (c *x11Conn) MoveTo(x, y int) error {
	C.conn_move(c.dpy, C.int(x), C.int(y))
	return nil
}

func (c *x11Conn) Button(button int, press bool) error {
	p := C.int(0)
	if press {
		p = 1
	}
	C.conn_button(c.dpy, C.int(button), p)
	return nil
}

func (c *x11Conn) Key(keycode uint32, press bool) error {
	p := C.int(0)
	if press {
		p = 1
	}
	C.conn_key(c.dpy, C.uint(keycode), p)
	return nil
}

func (c *x11Conn) Close() error {
	if c.dpy != nil {
		C.XCloseDisplay(c.dpy)
		c.dpy = nil
	}
	return nil
}
