//go:build linux
// +build linux

package ui

import "fyne.io/fyne/v2"

// linuxOS implements the OS interface for Linux.
type linuxOS struct{}

// TransformToForeground changes the application to be a regular app with a Dock icon.
func (l *linuxOS) TransformToForeground() {
	// no-op for Linux
}

// TransformToBackground changes the application to be a background-only app.
func (l *linuxOS) TransformToBackground() {
	// no-op for Linux
}

// SetupLifecycle sets up OS-specific lifecycle hooks.
func (l *linuxOS) SetupLifecycle(app fyne.App, ba *BiggerTaskApp) {
	// No-op for standard Linux
}

// getOS returns a new instance of the linuxOS struct.
func getOS() OS {
	return &linuxOS{}
}
