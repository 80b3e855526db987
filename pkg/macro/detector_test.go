package macro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taboulet/BiggerTask/config"
)

// drainMatches collects slot notifications until the channel stays quiet.
func drainMatches(d *Detector) []config.ComboSlot {
	var got []config.ComboSlot
	for {
		select {
		case slot := <-d.Matches():
			got = append(got, slot)
		case <-time.After(100 * time.Millisecond):
			return got
		}
	}
}

func runDetector(t *testing.T, conn *fakeConn, bind func(*Detector)) []config.ComboSlot {
	t.Helper()
	d := NewDetector(fixedOpen(conn))
	bind(d)
	require.NoError(t, d.Start())
	require.Eventually(t, conn.drained, time.Second, 5*time.Millisecond)
	got := drainMatches(d)
	d.Stop()
	d.Wait()
	return got
}

func TestDetectorMatchesOrderIndependent(t *testing.T) {
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(50)}, // Shift
		{ev: keyDown(37)}, // Ctrl
		{ev: keyDown(27)}, // R
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStartRecording, []uint32{37, 50, 27})
	})
	assert.Equal(t, []config.ComboSlot{config.SlotStartRecording}, got)
}

func TestDetectorRequiresExactSet(t *testing.T) {
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(37)},
		{ev: keyDown(50)},
		{ev: keyDown(27)}, // superset of {37, 50}: no match
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStopPlayback, []uint32{37, 50})
	})
	// The two-key set was held on the way to three keys, so it fired once.
	assert.Equal(t, []config.ComboSlot{config.SlotStopPlayback}, got)
}

func TestDetectorSubsetDoesNotMatch(t *testing.T) {
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(37)},
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStartPlayback, []uint32{37, 50})
	})
	assert.Empty(t, got)
}

func TestDetectorEdgeTriggeredOnAutoRepeat(t *testing.T) {
	// A held key delivers repeated raw presses; only the first mutates the
	// set, so the combo fires once.
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(67)},
		{ev: keyDown(67)},
		{ev: keyDown(67)},
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStartPlayback, []uint32{67})
	})
	assert.Equal(t, []config.ComboSlot{config.SlotStartPlayback}, got)
}

func TestDetectorRefiresAfterRelease(t *testing.T) {
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(67)},
		{ev: keyUp(67)},
		{ev: keyDown(67)},
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStartPlayback, []uint32{67})
	})
	assert.Equal(t, []config.ComboSlot{config.SlotStartPlayback, config.SlotStartPlayback}, got)
}

func TestDetectorReleaseIntoSmallerCombo(t *testing.T) {
	// Releasing back down to a bound set fires it: release is a set
	// mutation like any other.
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(37)},
		{ev: keyDown(50)},
		{ev: keyUp(50)},
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStopPlayback, []uint32{37})
	})
	assert.Equal(t, []config.ComboSlot{config.SlotStopPlayback, config.SlotStopPlayback}, got)
}

func TestDetectorClearCombo(t *testing.T) {
	conn := &fakeConn{script: []scriptStep{
		{ev: keyDown(67)},
	}}
	got := runDetector(t, conn, func(d *Detector) {
		d.SetCombo(config.SlotStartPlayback, []uint32{67})
		d.SetCombo(config.SlotStartPlayback, nil)
	})
	assert.Empty(t, got)
}

func TestDetectorStartFailure(t *testing.T) {
	d := NewDetector(failingOpen)
	err := d.Start()
	require.Error(t, err)
	// Wait returns immediately after a failed start.
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked after failed start")
	}
}
