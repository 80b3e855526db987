package ui

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/pkg/macro"
	"github.com/Taboulet/BiggerTask/util/log"
)

// createMainWindow builds the single control window. Closing it hides the
// window; the application lives in the tray.
func (ba *BiggerTaskApp) createMainWindow() {
	win := ba.app.NewWindow(config.AppName)
	win.Resize(fyne.NewSize(540, 480))
	win.CenterOnScreen()
	win.SetCloseIntercept(func() {
		win.Hide()
	})
	ba.win = win

	ba.statusLabel = widget.NewLabel("Ready")
	ba.statusLabel.Alignment = fyne.TextAlignCenter
	ba.statusLabel.TextStyle = fyne.TextStyle{Bold: true}

	content := container.NewVBox(
		ba.createCapturePanel(),
		widget.NewSeparator(),
		ba.createPlaybackPanel(),
		widget.NewSeparator(),
		ba.createFilePanel(),
		widget.NewSeparator(),
		ba.createHotkeyPanel(),
	)

	win.SetContent(container.NewBorder(nil, ba.statusLabel, nil, nil, container.NewVScroll(content)))
}

func (ba *BiggerTaskApp) setStatus(s string) {
	ba.statusLabel.SetText(s)
}

// lastSpeed reads the speed slider, rounded to a tenth.
func (ba *BiggerTaskApp) lastSpeed() float64 {
	return float64(int(ba.speedSlider.Value*10+0.5)) / 10
}

// lastLoops reads the loop controls. 0 means repeat until stopped.
func (ba *BiggerTaskApp) lastLoops() int {
	if ba.infiniteCheck.Checked {
		return 0
	}
	n, err := strconv.Atoi(ba.loopsEntry.Text)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (ba *BiggerTaskApp) createCapturePanel() fyne.CanvasObject {
	recordButton := widget.NewButtonWithIcon("Record", theme.MediaRecordIcon(), func() {
		go func() { ba.Notify(ba.controller.StartCapture()) }()
	})
	stopButton := widget.NewButtonWithIcon("Stop Recording", theme.MediaStopIcon(), func() {
		go func() { ba.Notify(ba.controller.StopCapture()) }()
	})

	return container.NewVBox(
		createSectionTitleLabel("Recording"),
		createSettingDescriptionLabel("Capture mouse and keyboard input across all monitors. Recording replaces the previous take."),
		container.NewHBox(recordButton, stopButton, layout.NewSpacer()),
	)
}

func (ba *BiggerTaskApp) createPlaybackPanel() fyne.CanvasObject {
	speedValue := widget.NewLabel("x1.0")
	ba.speedSlider = widget.NewSlider(0.1, 5.0)
	ba.speedSlider.Step = 0.1
	ba.speedSlider.Value = 1.0
	ba.speedSlider.OnChanged = func(v float64) {
		speedValue.SetText(fmt.Sprintf("x%.1f", float64(int(v*10+0.5))/10))
	}

	ba.loopsEntry = widget.NewEntry()
	ba.loopsEntry.SetText("1")
	ba.infiniteCheck = widget.NewCheck("Repeat until stopped", func(b bool) {
		if b {
			ba.loopsEntry.Disable()
		} else {
			ba.loopsEntry.Enable()
		}
	})

	playButton := widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), func() {
		speed, loops := ba.lastSpeed(), ba.lastLoops()
		go func() { ba.Notify(ba.controller.StartPlayback(speed, loops)) }()
	})
	stopButton := widget.NewButtonWithIcon("Stop Playback", theme.MediaStopIcon(), func() {
		go func() { ba.Notify(ba.controller.StopPlayback()) }()
	})

	return container.NewVBox(
		createSectionTitleLabel("Playback"),
		createSettingDescriptionLabel("Replay the recorded take against the live desktop. Speed rescales the whole timeline."),
		container.NewBorder(nil, nil, widget.NewLabel("Speed:"), speedValue, ba.speedSlider),
		container.NewHBox(widget.NewLabel("Loops:"), ba.loopsEntry, ba.infiniteCheck, layout.NewSpacer()),
		container.NewHBox(playButton, stopButton, layout.NewSpacer()),
	)
}

func (ba *BiggerTaskApp) createFilePanel() fyne.CanvasObject {
	saveButton := widget.NewButtonWithIcon("Save...", theme.DocumentSaveIcon(), func() {
		ba.showSaveDialog()
	})
	loadButton := widget.NewButtonWithIcon("Load...", theme.FolderOpenIcon(), func() {
		ba.showLoadDialog()
	})

	return container.NewVBox(
		createSectionTitleLabel("Macro Files"),
		createSettingDescriptionLabel("Macros are stored as "+config.MacroExt+" files."),
		container.NewHBox(saveButton, loadButton, layout.NewSpacer()),
	)
}

// startLocation maps the last used directory to a dialog location. A stale
// directory silently falls back to the dialog default.
func (ba *BiggerTaskApp) startLocation() fyne.ListableURI {
	if ba.cfg.LastDirectory == "" {
		return nil
	}
	lister, err := storage.ListerForURI(storage.NewFileURI(ba.cfg.LastDirectory))
	if err != nil {
		log.Debugf("cannot list last directory: %v", err)
		return nil
	}
	return lister
}

func (ba *BiggerTaskApp) showSaveDialog() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		go func() { ba.Notify(ba.controller.Save(path)) }()
	}, ba.win)
	d.SetFileName("macro" + config.MacroExt)
	if loc := ba.startLocation(); loc != nil {
		d.SetLocation(loc)
	}
	d.Show()
}

func (ba *BiggerTaskApp) showLoadDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		go func() { ba.Notify(ba.controller.Load(path)) }()
	}, ba.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{config.MacroExt}))
	if loc := ba.startLocation(); loc != nil {
		d.SetLocation(loc)
	}
	d.Show()
}

func (ba *BiggerTaskApp) createHotkeyPanel() fyne.CanvasObject {
	ba.comboLabels = make(map[config.ComboSlot]*widget.Label)

	panel := container.NewVBox(
		createSectionTitleLabel("Hotkeys"),
		createSettingDescriptionLabel("Global key combos, up to three keys each. They work even when this window has no focus."),
	)

	for _, slot := range []config.ComboSlot{config.SlotStartRecording, config.SlotStartPlayback, config.SlotStopPlayback} {
		slot := slot

		display := ba.cfg.Combo(slot).Display
		if display == "" {
			display = "None"
		}
		comboLabel := widget.NewLabel(display)
		ba.comboLabels[slot] = comboLabel

		bindButton := widget.NewButton("Bind", func() {
			ba.showBindDialog(slot)
		})
		clearButton := widget.NewButton("Clear", func() {
			status := ba.controller.ClearCombo(slot)
			comboLabel.SetText("None")
			ba.setStatus(status)
		})

		row := container.NewBorder(nil, nil,
			widget.NewLabel(slot.String()+":"),
			container.NewHBox(bindButton, clearButton),
			comboLabel,
		)
		panel.Add(row)
	}
	return panel
}

// showBindDialog captures a combo for the slot. Keys show up live as they are
// pressed; Save commits whatever was collected, Cancel discards it.
func (ba *BiggerTaskApp) showBindDialog(slot config.ComboSlot) {
	display := widget.NewLabel("Press up to 3 keys...")
	display.Alignment = fyne.TextAlignCenter
	display.TextStyle = fyne.TextStyle{Bold: true}

	cr := ba.controller.NewComboRecorder(slot, func(keys []uint32, listening bool) {
		fyne.Do(func() {
			if len(keys) > 0 {
				display.SetText(macro.DisplayName(keys))
			}
		})
	})

	cancelButton := widget.NewButton("Cancel", nil)
	saveButton := widget.NewButton("Save", nil)

	c := container.NewVBox(
		createSettingDescriptionLabel(fmt.Sprintf("Press the keys for %v. Capture stops after three keys or a pause.", slot)),
		display,
		widget.NewSeparator(),
		container.NewHBox(cancelButton, layout.NewSpacer(), saveButton),
	)
	d := dialog.NewCustomWithoutButtons(fmt.Sprintf("Bind %v", slot), c, ba.win)
	d.Resize(fyne.NewSize(400, 180))

	saveButton.OnTapped = func() {
		keys := cr.Commit()
		status := ba.controller.BindCombo(slot, keys)
		label := ba.cfg.Combo(slot).Display
		if label == "" {
			label = "None"
		}
		ba.comboLabels[slot].SetText(label)
		ba.setStatus(status)
		d.Hide()
	}
	cancelButton.OnTapped = func() {
		cr.Cancel()
		d.Hide()
	}

	if err := cr.Start(); err != nil {
		ba.setStatus(fmt.Sprintf("Cannot capture combo: %v", err))
		return
	}
	d.Show()
}
