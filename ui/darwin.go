//go:build darwin
// +build darwin

package ui

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Foundation -framework AppKit

#import <AppKit/AppKit.h>

// setActivationPolicy activates the application and sets its activation
// policy. Policy 0 (regular) shows a Dock icon; policy 1 (accessory) hides
// it. The app must be re-activated for the change to take effect.
void setActivationPolicy(long policy) {
    [NSApp setActivationPolicy:policy];
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

import "fyne.io/fyne/v2"

// darwinOS implements the OS interface for macOS.
type darwinOS struct{}

// TransformToForeground changes the application to be a regular app with a Dock icon.
func (d *darwinOS) TransformToForeground() {
	C.setActivationPolicy(0)
}

// TransformToBackground changes the application to be a background-only app.
func (d *darwinOS) TransformToBackground() {
	C.setActivationPolicy(1)
}

// SetupLifecycle sets up OS-specific lifecycle hooks.
func (d *darwinOS) SetupLifecycle(app fyne.App, ba *BiggerTaskApp) {
	// The window is shown at startup, so begin as a foreground app.
	d.TransformToForeground()
}

// getOS returns a new instance of the darwinOS struct.
func getOS() OS {
	return &darwinOS{}
}
