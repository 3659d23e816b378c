package gen

import (
	"time"
)

var (
	// DefaultRequestTimeout bounds Call requests made without an explicit timeout.
	DefaultRequestTimeout time.Duration = 5 * time.Second

	DefaultLogLevel LogLevel = LogLevelInfo
)

const (
	LicenseMIT string = "MIT"
)
