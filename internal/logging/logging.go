// Package logging gates verbose output of the standard logger by the
// configured level.
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Levels accepted by SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var debug atomic.Bool

// SetLevel applies a configured level. Only debug enables Debugf output. An
// unknown level leaves debug output off and returns an error.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		debug.Store(true)
		return nil
	case LevelInfo, LevelWarn, LevelError, "":
		debug.Store(false)
		return nil
	default:
		debug.Store(false)
		return fmt.Errorf("unknown log level %q", level)
	}
}

// DebugEnabled reports whether Debugf writes anything.
func DebugEnabled() bool {
	return debug.Load()
}

// Debugf logs through the standard logger when the level is debug.
func Debugf(format string, args ...any) {
	if debug.Load() {
		log.Printf(format, args...)
	}
}
