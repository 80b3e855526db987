package config

import "strings"

// AppVersion is the version of the application, injected at build time.
var AppVersion string

// AppName is the name of the application.
const AppName = "BiggerTask"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = AppName

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// MacroExt is the extension for saved macro files.
const MacroExt = ".recq"

// MacroFormat is the format marker written into saved macro files.
const MacroFormat = "recq-v1"
