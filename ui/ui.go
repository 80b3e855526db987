package ui

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/pkg/macro"
	"github.com/Taboulet/BiggerTask/util"
	"github.com/Taboulet/BiggerTask/util/log"
)

// BiggerTaskApp represents the application
type BiggerTaskApp struct {
	app        fyne.App
	win        fyne.Window
	cfg        *config.Config
	controller *macro.Controller
	trayMenu   *fyne.Menu

	statusLabel   *widget.Label
	speedSlider   *widget.Slider
	loopsEntry    *widget.Entry
	infiniteCheck *widget.Check
	comboLabels   map[config.ComboSlot]*widget.Label
}

var (
	instance *BiggerTaskApp // Singleton instance of the application
	once     sync.Once      // Ensures the singleton is created only once
)

// GetInstance returns the singleton instance of the application
func GetInstance(cfg *config.Config, controller *macro.Controller) *BiggerTaskApp {
	a := app.NewWithID(config.AppName)
	once.Do(func() {
		instance = &BiggerTaskApp{
			app:        a,
			cfg:        cfg,
			controller: controller,
		}
		instance.createMainWindow()
		if _, ok := a.(desktop.App); ok {
			instance.createTrayMenu()
		} else {
			log.Println("Tray icon not supported on this platform")
		}
		getOS().SetupLifecycle(a, instance)
		go instance.checkForUpdates()
	})
	return instance
}

// createTrayMenu creates the tray menu for the application
func (ba *BiggerTaskApp) createTrayMenu() {
	desk := ba.app.(desktop.App)
	trayMenu := fyne.NewMenu(
		config.AppName,
		ba.createMenuItem("Record / Stop", func() {
			go ba.toggleRecording()
		}, theme.MediaRecordIcon()),
		ba.createMenuItem("Play", func() {
			go ba.playLast()
		}, theme.MediaPlayIcon()),
		ba.createMenuItem("Stop Playback", func() {
			go ba.controller.StopPlayback()
		}, theme.MediaStopIcon()),
		fyne.NewMenuItemSeparator(), // Divider line
		ba.createMenuItem("Show Window", func() {
			ba.win.Show()
			ba.win.RequestFocus()
		}, theme.HomeIcon()),
		fyne.NewMenuItemSeparator(), // Divider line
		ba.createMenuItem("Quit", func() {
			ba.app.Quit()
		}, theme.LogoutIcon()),
	)
	desk.SetSystemTrayMenu(trayMenu)
	desk.SetSystemTrayIcon(theme.MediaRecordIcon())
	ba.app.SetIcon(theme.MediaRecordIcon())
	ba.trayMenu = trayMenu
}

func (ba *BiggerTaskApp) createMenuItem(label string, action func(), icon fyne.Resource) *fyne.MenuItem {
	mi := fyne.NewMenuItem(label, action)
	mi.Icon = icon
	return mi
}

func (ba *BiggerTaskApp) toggleRecording() {
	if ba.controller.Recording() {
		ba.controller.StopCapture()
	} else {
		ba.controller.StartCapture()
	}
}

func (ba *BiggerTaskApp) playLast() {
	ba.controller.StartPlayback(ba.lastSpeed(), ba.lastLoops())
}

// checkForUpdates polls GitHub once at startup and, when a newer release
// exists, appends an update item to the tray menu.
func (ba *BiggerTaskApp) checkForUpdates() {
	client := &http.Client{Timeout: 10 * time.Second}
	result, err := util.CheckForUpdates(client)
	if err != nil {
		log.Debugf("update check failed: %v", err)
		return
	}
	if !result.UpdateAvailable || ba.trayMenu == nil {
		return
	}

	releaseURL, err := url.Parse(result.ReleaseURL)
	if err != nil {
		return
	}
	updateItem := fyne.NewMenuItem(updateMenuItemPrefix+result.LatestVersion, func() {
		if err := ba.app.OpenURL(releaseURL); err != nil {
			log.Printf("failed to open release page: %v", err)
		}
	})
	updateItem.Icon = theme.DownloadIcon()
	ba.trayMenu.Items = append([]*fyne.MenuItem{updateItem, fyne.NewMenuItemSeparator()}, ba.trayMenu.Items...)
	ba.trayMenu.Refresh()
}

// Notify surfaces a status line in the window; safe to call from any
// goroutine.
func (ba *BiggerTaskApp) Notify(status string) {
	fyne.Do(func() {
		ba.setStatus(status)
	})
}

// ShowError surfaces a startup failure that the user must see.
func (ba *BiggerTaskApp) ShowError(err error) {
	ba.Notify(fmt.Sprintf("Error: %v", err))
}

// Run shows the main window and runs the application
func (ba *BiggerTaskApp) Run() {
	ba.win.Show()
	ba.app.Run()
}
