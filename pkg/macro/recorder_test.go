package macro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Taboulet/BiggerTask/pkg/input"
)

var testMonitors = []input.Monitor{
	{Name: "DP-1", X: 0, Y: 0, Width: 1920, Height: 1080},
	{Name: "HDMI-1", X: 1920, Y: 0, Width: 1280, Height: 1024},
}

// recordAll runs a capture over the scripted connection and returns the log.
// The motion throttle is disabled so scripted events are never coalesced by
// wall-clock timing.
func recordAll(t *testing.T, conn *fakeConn) []Event {
	t.Helper()
	rec := NewRecorder(fixedOpen(conn), nil)
	rec.limiter = rate.NewLimiter(rate.Inf, 0)
	require.NoError(t, rec.Start())
	require.Eventually(t, conn.drained, time.Second, 5*time.Millisecond)
	rec.Stop()
	return rec.Wait()
}

func TestRecorderCapturesMotionWithMonitor(t *testing.T) {
	conn := &fakeConn{
		monitors: testMonitors,
		script: []scriptStep{
			{ev: input.RawEvent{Kind: input.Motion}, x: 100, y: 200},
			{ev: input.RawEvent{Kind: input.Motion}, x: 2000, y: 50},
		},
	}
	events := recordAll(t, conn)

	require.Len(t, events, 2)
	assert.Equal(t, MouseMove, events[0].Type)
	assert.Equal(t, "DP-1", events[0].Monitor)
	assert.Equal(t, 100, events[0].RelX)
	assert.Equal(t, 200, events[0].RelY)

	assert.Equal(t, "HDMI-1", events[1].Monitor)
	assert.Equal(t, 80, events[1].RelX)
	assert.Equal(t, 50, events[1].RelY)
	assert.Equal(t, 2000, events[1].X)
}

func TestRecorderDeduplicatesStationaryMotion(t *testing.T) {
	conn := &fakeConn{
		monitors: testMonitors,
		script: []scriptStep{
			{ev: input.RawEvent{Kind: input.Motion}, x: 10, y: 10},
			{ev: input.RawEvent{Kind: input.Motion}, x: 10, y: 10},
			{ev: input.RawEvent{Kind: input.Motion}, x: 10, y: 10},
			{ev: input.RawEvent{Kind: input.Motion}, x: 11, y: 10},
		},
	}
	events := recordAll(t, conn)

	require.Len(t, events, 2)
	assert.Equal(t, 10, events[0].X)
	assert.Equal(t, 11, events[1].X)
}

func TestRecorderCapturesButtonsAndKeys(t *testing.T) {
	conn := &fakeConn{
		monitors: testMonitors,
		script: []scriptStep{
			{ev: input.RawEvent{Kind: input.ButtonPress, Button: 1}, x: 50, y: 60},
			{ev: input.RawEvent{Kind: input.ButtonRelease, Button: 1}, x: 50, y: 60},
			{ev: keyDown(38), x: 50, y: 60},
			{ev: keyUp(38), x: 50, y: 60},
		},
	}
	events := recordAll(t, conn)

	require.Len(t, events, 4)
	assert.Equal(t, MouseButton, events[0].Type)
	assert.True(t, events[0].Pressed)
	assert.Equal(t, 1, events[0].Button)
	assert.Equal(t, "DP-1", events[0].Monitor)

	assert.Equal(t, MouseButton, events[1].Type)
	assert.False(t, events[1].Pressed)

	assert.Equal(t, Key, events[2].Type)
	assert.Equal(t, uint32(38), events[2].Keycode)
	assert.True(t, events[2].Pressed)
	assert.False(t, events[3].Pressed)
}

func TestRecorderSynthesizesReleasesForHeldButtons(t *testing.T) {
	conn := &fakeConn{
		monitors: testMonitors,
		script: []scriptStep{
			{ev: input.RawEvent{Kind: input.ButtonPress, Button: 3}, x: 40, y: 40},
			{ev: input.RawEvent{Kind: input.ButtonPress, Button: 1}, x: 40, y: 40},
		},
	}
	events := recordAll(t, conn)

	// Two presses plus two synthesized releases in ascending button order.
	require.Len(t, events, 4)
	assert.Equal(t, 1, events[2].Button)
	assert.False(t, events[2].Pressed)
	assert.Equal(t, 3, events[3].Button)
	assert.False(t, events[3].Pressed)
	assert.GreaterOrEqual(t, events[3].T, events[1].T)
}

func TestRecorderNoSynthesisWhenButtonsReleased(t *testing.T) {
	conn := &fakeConn{
		monitors: testMonitors,
		script: []scriptStep{
			{ev: input.RawEvent{Kind: input.ButtonPress, Button: 1}, x: 40, y: 40},
			{ev: input.RawEvent{Kind: input.ButtonRelease, Button: 1}, x: 40, y: 40},
		},
	}
	events := recordAll(t, conn)
	require.Len(t, events, 2)
}

func TestRecorderTimestampsMonotonic(t *testing.T) {
	conn := &fakeConn{
		monitors: testMonitors,
		script: []scriptStep{
			{ev: keyDown(38)},
			{ev: keyUp(38)},
			{ev: keyDown(39)},
		},
	}
	events := recordAll(t, conn)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].T, events[i-1].T)
	}
	assert.GreaterOrEqual(t, events[0].T, int64(0))
}

func TestRecorderStartFailure(t *testing.T) {
	rec := NewRecorder(failingOpen, nil)
	err := rec.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, input.ErrUnavailable)
	// Wait returns immediately with an empty log.
	assert.Empty(t, rec.Wait())
}

func TestRecorderClosesConnection(t *testing.T) {
	conn := &fakeConn{monitors: testMonitors}
	rec := NewRecorder(fixedOpen(conn), nil)
	require.NoError(t, rec.Start())
	rec.Stop()
	rec.Wait()
	assert.True(t, conn.closed)
}
