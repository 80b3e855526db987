package ui

// updateMenuItemPrefix is the copy for the new update available tray menu item
const updateMenuItemPrefix = "Update to "
