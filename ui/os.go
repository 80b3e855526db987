package ui

import "fyne.io/fyne/v2"

// OS abstracts the platform-specific pieces of running a tray application.
type OS interface {
	// TransformToForeground changes the application to be a regular app
	// with a Dock icon.
	TransformToForeground()
	// TransformToBackground changes the application to be a
	// background-only app.
	TransformToBackground()
	// SetupLifecycle sets up OS-specific lifecycle hooks.
	SetupLifecycle(app fyne.App, ba *BiggerTaskApp)
}
