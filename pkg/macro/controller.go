package macro

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/pkg/input"
	"github.com/Taboulet/BiggerTask/util/log"
)

// Controller orchestrates the engines: at most one active capture or
// playback at a time, the single in-memory event log between capture and
// save/load/play, and the wiring from hotkey notifications to start/stop
// actions. Every operation reports a status string suitable for display;
// failures never propagate as panics across this boundary.
type Controller struct {
	cfg  *config.Config
	open input.OpenFunc

	mu        sync.Mutex
	events    []Event
	recorder  *Recorder
	player    *Player
	lastSpeed float64
	lastLoops int

	detector *Detector

	lmu       sync.Mutex
	listeners []func(string)
}

// NewController creates the controller and seeds the hotkey detector from
// the persisted combos. The detector is not started until Run.
func NewController(cfg *config.Config, open input.OpenFunc) *Controller {
	c := &Controller{
		cfg:       cfg,
		open:      open,
		lastSpeed: 1.0,
		lastLoops: 1,
		detector:  NewDetector(open),
	}
	for _, slot := range []config.ComboSlot{config.SlotStartRecording, config.SlotStartPlayback, config.SlotStopPlayback} {
		if combo := cfg.Combo(slot); !combo.Empty() {
			c.detector.SetCombo(slot, combo.Keys)
		}
	}
	return c
}

// AddStatusListener registers a callback for status broadcasts. Callbacks
// must not block; they run on engine goroutines.
func (c *Controller) AddStatusListener(fn func(string)) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) broadcast(s string) {
	c.lmu.Lock()
	listeners := append(([]func(string))(nil), c.listeners...)
	c.lmu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Run starts the hotkey detector and dispatches its notifications until the
// context is cancelled. A detector failure (e.g. no backend) is returned so
// the caller can report it; the rest of the application still works without
// hotkeys.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.detector.Start(); err != nil {
		return err
	}
	defer func() {
		c.detector.Stop()
		c.detector.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case slot := <-c.detector.Matches():
			c.handleCombo(slot)
		}
	}
}

// shutdown stops whichever engine is active and waits for it to drain.
func (c *Controller) shutdown() {
	c.mu.Lock()
	rec, pl := c.recorder, c.player
	c.mu.Unlock()
	if rec != nil {
		rec.Stop()
		rec.Wait()
	}
	if pl != nil {
		pl.Stop()
		pl.Wait()
	}
}

func (c *Controller) handleCombo(slot config.ComboSlot) {
	log.Debugf("hotkey combo fired: %v", slot)
	switch slot {
	case config.SlotStartRecording:
		c.mu.Lock()
		recording := c.recorder != nil
		c.mu.Unlock()
		if recording {
			c.broadcast(c.StopCapture())
		} else {
			c.broadcast(c.StartCapture())
		}
	case config.SlotStartPlayback:
		c.mu.Lock()
		speed, loops := c.lastSpeed, c.lastLoops
		c.mu.Unlock()
		c.broadcast(c.StartPlayback(speed, loops))
	case config.SlotStopPlayback:
		c.broadcast(c.StopPlayback())
	}
}

// StartCapture begins a new recording session, replacing the previous log
// when it finishes. Rejected while any engine is active.
func (c *Controller) StartCapture() string {
	c.mu.Lock()
	if c.recorder != nil {
		c.mu.Unlock()
		return "Recording already in progress"
	}
	if c.player != nil {
		c.mu.Unlock()
		return "Cannot record during playback"
	}
	rec := NewRecorder(c.open, c.broadcast)
	c.recorder = rec
	c.mu.Unlock()

	if err := rec.Start(); err != nil {
		c.mu.Lock()
		c.recorder = nil
		c.mu.Unlock()
		return capitalize(err.Error())
	}
	return "Recording..."
}

// StopCapture finishes the active recording and takes ownership of its log.
func (c *Controller) StopCapture() string {
	c.mu.Lock()
	rec := c.recorder
	c.mu.Unlock()
	if rec == nil {
		return "Not recording"
	}

	rec.Stop()
	events := rec.Wait()

	c.mu.Lock()
	c.events = events
	c.recorder = nil
	c.mu.Unlock()
	return fmt.Sprintf("Recorded %d events", len(events))
}

// StartPlayback replays the current log. loops of 0 replays until stopped.
func (c *Controller) StartPlayback(speed float64, loops int) string {
	if speed <= 0 {
		return "Invalid speed"
	}
	if loops < 0 {
		return "Invalid loop count"
	}

	c.mu.Lock()
	if c.player != nil {
		c.mu.Unlock()
		return "Playback already in progress"
	}
	if c.recorder != nil {
		c.mu.Unlock()
		return "Cannot play while recording"
	}
	if len(c.events) == 0 {
		c.mu.Unlock()
		return "No events to play"
	}
	pl := NewPlayer(c.open, c.events, speed, loops, c.broadcast)
	c.player = pl
	c.lastSpeed = speed
	c.lastLoops = loops
	c.mu.Unlock()

	if err := pl.Start(); err != nil {
		c.mu.Lock()
		c.player = nil
		c.mu.Unlock()
		return capitalize(err.Error())
	}

	// Reap the engine when the run drains so a new one can start.
	go func() {
		pl.Wait()
		c.mu.Lock()
		if c.player == pl {
			c.player = nil
		}
		c.mu.Unlock()
	}()

	if loops == 0 {
		return fmt.Sprintf("Playing (infinite loops, speed x%g)...", speed)
	}
	return fmt.Sprintf("Playing (%d loops, speed x%g)...", loops, speed)
}

// StopPlayback cancels the active replay.
func (c *Controller) StopPlayback() string {
	c.mu.Lock()
	pl := c.player
	c.mu.Unlock()
	if pl == nil {
		return "Not playing"
	}
	pl.Stop()
	pl.Wait()

	c.mu.Lock()
	if c.player == pl {
		c.player = nil
	}
	c.mu.Unlock()
	return "Playback stopped."
}

// Save writes the current log to path, appending the macro extension when
// missing, and remembers the directory for the next file dialog.
func (c *Controller) Save(path string) string {
	c.mu.Lock()
	events := CloneEvents(c.events)
	c.mu.Unlock()
	if len(events) == 0 {
		return "Nothing to save"
	}

	if !strings.HasSuffix(path, config.MacroExt) {
		path += config.MacroExt
	}
	if err := Save(path, events); err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}
	if err := c.cfg.SetLastDirectory(filepath.Dir(path)); err != nil {
		log.Printf("failed to persist last directory: %v", err)
	}
	return fmt.Sprintf("Saved %d events", len(events))
}

// Load replaces the current log with the file's contents. On failure the
// previous log is kept untouched.
func (c *Controller) Load(path string) string {
	events, dropped, err := Load(path)
	if err != nil {
		return fmt.Sprintf("Load failed: %v", err)
	}

	c.mu.Lock()
	c.events = events
	c.mu.Unlock()

	if err := c.cfg.SetLastDirectory(filepath.Dir(path)); err != nil {
		log.Printf("failed to persist last directory: %v", err)
	}
	if dropped > 0 {
		return fmt.Sprintf("Loaded %d events (%d invalid records dropped)", len(events), dropped)
	}
	return fmt.Sprintf("Loaded %d events", len(events))
}

// BindCombo binds a captured key sequence to a slot, persists it, and
// updates the live detector.
func (c *Controller) BindCombo(slot config.ComboSlot, keys []uint32) string {
	if len(keys) == 0 {
		return c.ClearCombo(slot)
	}
	if len(keys) > comboMaxKeys {
		return fmt.Sprintf("A combo may use at most %d keys", comboMaxKeys)
	}

	combo := config.HotkeyCombo{
		Display: DisplayName(keys),
		Keys:    append([]uint32(nil), keys...),
	}
	if err := c.cfg.SetCombo(slot, combo); err != nil {
		return fmt.Sprintf("Failed to save combo: %v", err)
	}
	c.detector.SetCombo(slot, combo.Keys)
	return fmt.Sprintf("%v bound to %s", slot, combo.Display)
}

// ClearCombo removes a slot's binding.
func (c *Controller) ClearCombo(slot config.ComboSlot) string {
	if err := c.cfg.ClearCombo(slot); err != nil {
		return fmt.Sprintf("Failed to save combo: %v", err)
	}
	c.detector.SetCombo(slot, nil)
	return fmt.Sprintf("%v binding cleared", slot)
}

// NewComboRecorder opens a combo capture session for the given slot. The
// start-recording slot never self-commits on idle.
func (c *Controller) NewComboRecorder(slot config.ComboSlot, onChange func([]uint32, bool)) *ComboRecorder {
	return NewComboRecorder(c.open, slot != config.SlotStartRecording, onChange)
}

// Events returns a snapshot of the current log.
func (c *Controller) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CloneEvents(c.events)
}

// EventCount returns the size of the current log.
func (c *Controller) EventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Recording reports whether a capture session is active.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recorder != nil
}

// Playing reports whether a replay is active.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player != nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
