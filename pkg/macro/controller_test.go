package macro

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/pkg/input"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	return cfg
}

// sharedOpen hands a fresh scripted connection to every engine the controller
// spawns.
func sharedOpen(make func(input.Scope) *fakeConn) input.OpenFunc {
	return func(scope input.Scope) (input.Conn, error) {
		return make(scope), nil
	}
}

func TestControllerCaptureLifecycle(t *testing.T) {
	var captureConn *fakeConn
	open := sharedOpen(func(input.Scope) *fakeConn {
		captureConn = &fakeConn{
			monitors: testMonitors,
			script: []scriptStep{
				{ev: keyDown(38), x: 1, y: 1},
				{ev: keyUp(38), x: 1, y: 1},
			},
		}
		return captureConn
	})
	c := NewController(testConfig(t), open)

	assert.Equal(t, "Not recording", c.StopCapture())
	assert.Equal(t, "Recording...", c.StartCapture())
	assert.True(t, c.Recording())
	assert.Equal(t, "Recording already in progress", c.StartCapture())

	require.Eventually(t, captureConn.drained, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Recorded 2 events", c.StopCapture())
	assert.False(t, c.Recording())
	assert.Len(t, c.Events(), 2)
}

func TestControllerPlaybackBusyRules(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	c := NewController(testConfig(t), open)

	assert.Equal(t, "No events to play", c.StartPlayback(1.0, 1))
	assert.Equal(t, "Invalid speed", c.StartPlayback(0, 1))
	assert.Equal(t, "Invalid loop count", c.StartPlayback(1.0, -1))
	assert.Equal(t, "Not playing", c.StopPlayback())

	require.Equal(t, "Recording...", c.StartCapture())
	assert.Equal(t, "Cannot play while recording", c.StartPlayback(1.0, 1))
	c.StopCapture()
}

func TestControllerPlaybackRun(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	c := NewController(testConfig(t), open)
	seedLog(c, []Event{
		{Type: Key, T: 0, Keycode: 24, Pressed: true},
		{Type: Key, T: 5, Keycode: 24, Pressed: false},
	})

	assert.Equal(t, "Playing (2 loops, speed x1)...", c.StartPlayback(1.0, 2))

	// The engine is reaped once the run drains.
	require.Eventually(t, func() bool { return !c.Playing() }, 2*time.Second, 5*time.Millisecond)
}

func TestControllerBusyWhilePlaying(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	c := NewController(testConfig(t), open)
	seedLog(c, []Event{{Type: Key, T: 0, Keycode: 24, Pressed: true}})

	// Infinite loops keep the engine alive until we stop it.
	require.Equal(t, "Playing (infinite loops, speed x1)...", c.StartPlayback(1.0, 0))
	assert.True(t, c.Playing())
	assert.Equal(t, "Playback already in progress", c.StartPlayback(1.0, 1))
	assert.Equal(t, "Cannot record during playback", c.StartCapture())
	assert.Equal(t, "Playback stopped.", c.StopPlayback())
}

func TestControllerInfinitePlaybackStop(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	c := NewController(testConfig(t), open)
	seedLog(c, []Event{{Type: Key, T: 0, Keycode: 24, Pressed: true}})

	assert.Equal(t, "Playing (infinite loops, speed x1)...", c.StartPlayback(1.0, 0))
	assert.Equal(t, "Playback stopped.", c.StopPlayback())
	assert.False(t, c.Playing())
}

func TestControllerSaveLoad(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	cfg := testConfig(t)
	c := NewController(cfg, open)

	assert.Equal(t, "Nothing to save", c.Save(filepath.Join(t.TempDir(), "out")))

	seedLog(c, []Event{
		{Type: MouseMove, T: 0, X: 1, Y: 2},
		{Type: Key, T: 10, Keycode: 24, Pressed: true},
		{Type: Key, T: 20, Keycode: 24, Pressed: false},
	})

	dir := t.TempDir()
	// The macro extension is appended when missing.
	assert.Equal(t, "Saved 3 events", c.Save(filepath.Join(dir, "demo")))
	assert.FileExists(t, filepath.Join(dir, "demo"+config.MacroExt))
	assert.Equal(t, dir, cfg.LastDirectory)

	c2 := NewController(testConfig(t), open)
	assert.Equal(t, "Loaded 3 events", c2.Load(filepath.Join(dir, "demo"+config.MacroExt)))
	assert.Len(t, c2.Events(), 3)
}

func TestControllerLoadFailureKeepsLog(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	c := NewController(testConfig(t), open)
	seedLog(c, []Event{{Type: Key, T: 0, Keycode: 24, Pressed: true}})

	status := c.Load(filepath.Join(t.TempDir(), "missing.recq"))
	assert.Contains(t, status, "Load failed")
	assert.Len(t, c.Events(), 1)
}

func TestControllerBindAndClearCombo(t *testing.T) {
	open := sharedOpen(func(input.Scope) *fakeConn { return &fakeConn{} })
	cfg := testConfig(t)
	c := NewController(cfg, open)

	status := c.BindCombo(config.SlotStartPlayback, []uint32{37, 50, 27})
	assert.Equal(t, "Start Playback bound to Ctrl + Shift + R", status)
	assert.Equal(t, []uint32{37, 50, 27}, cfg.Combo(config.SlotStartPlayback).Keys)

	assert.Equal(t, "A combo may use at most 3 keys",
		c.BindCombo(config.SlotStartPlayback, []uint32{1, 2, 3, 4}))

	status = c.ClearCombo(config.SlotStartPlayback)
	assert.Equal(t, "Start Playback binding cleared", status)
	assert.True(t, cfg.Combo(config.SlotStartPlayback).Empty())
}

func TestControllerHotkeyTogglesRecording(t *testing.T) {
	// The detector's stream fires the start-recording combo twice; the
	// second press stops the session started by the first.
	combo := []uint32{67}
	detectorScript := []scriptStep{
		{ev: keyDown(67)},
		{ev: keyUp(67)},
		{ev: keyDown(67)},
		{ev: keyUp(67)},
	}
	var detectorConn *fakeConn
	open := func(scope input.Scope) (input.Conn, error) {
		if scope == input.ScopeKeys {
			detectorConn = &fakeConn{script: detectorScript}
			return detectorConn, nil
		}
		return &fakeConn{monitors: testMonitors}, nil
	}

	cfg := testConfig(t)
	require.NoError(t, cfg.SetCombo(config.SlotStartRecording, config.HotkeyCombo{
		Display: "F1", Keys: combo,
	}))
	c := NewController(cfg, open)

	var statuses []string
	statusc := make(chan string, 16)
	c.AddStatusListener(func(s string) { statusc <- s })

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	// Both the controller and the engine broadcast, so collect until the
	// stop-side status shows up.
	deadline := time.After(2 * time.Second)
	for {
		stopped := false
		select {
		case s := <-statusc:
			statuses = append(statuses, s)
			if strings.HasPrefix(s, "Recorded") {
				stopped = true
			}
		case <-deadline:
			t.Fatalf("timed out waiting for statuses, got %v", statuses)
		}
		if stopped {
			break
		}
	}
	cancel()
	require.ErrorIs(t, <-runErr, context.Canceled)

	require.NotEmpty(t, statuses)
	assert.Equal(t, "Recording...", statuses[0])
	assert.Contains(t, statuses[len(statuses)-1], "Recorded")
}

func TestControllerRunDetectorFailure(t *testing.T) {
	c := NewController(testConfig(t), failingOpen)
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, input.ErrUnavailable)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Cannot start capture: no display", capitalize("cannot start capture: no display"))
	assert.Equal(t, "", capitalize(""))
}

// seedLog installs an event log directly, as a finished capture would.
func seedLog(c *Controller, events []Event) {
	c.mu.Lock()
	c.events = CloneEvents(events)
	c.mu.Unlock()
}
