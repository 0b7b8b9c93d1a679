// Package constants is responsible for defining the constants used in the application.
package constants

import "log/slog"

const (
	// CmdName is the name of the command line tool.
	CmdName = "filter-empty-users"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// ResultsKey is the top-level field holding the records of a result set.
	ResultsKey = "results"

	// UserIDKey and StartTimeKey are the only fields an empty user record carries.
	UserIDKey    = "userId"
	StartTimeKey = "startTime"
)
