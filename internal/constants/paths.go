// Package constants contains names shared across storybit packages.
package constants

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "storybit"

	// LogFilename is the default log file name.
	LogFilename = "storybit.log"

	// DatabaseFilename is the SQLite database holding cached results and credentials.
	DatabaseFilename = "storybit.db"

	// ConfigFilename is the default config file looked up in the XDG config dir.
	ConfigFilename = "storybit.yml"
)
