// Package schema implements the OWS1 log record schema: severity levels,
// the canonical payload layout, and JSON formatting with degradation on
// unserializable caller values.
package schema

import (
	"fmt"
	"strings"
)

// Level is an OWS1 severity level. The numeric values are the level codes
// emitted on the wire as level_code.
type Level int

const (
	LevelDebug    Level = 100
	LevelInfo     Level = 200
	LevelNotice   Level = 250
	LevelWarning  Level = 300
	LevelError    Level = 400
	LevelCritical Level = 500
)

// levelNames maps level codes to canonical OWS1 level names.
var levelNames = map[Level]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelNotice:   "NOTICE",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// String returns the canonical OWS1 name for the level. Unknown values are
// clamped to the nearest defined level first.
func (l Level) String() string {
	return levelNames[l.Clamp()]
}

// Code returns the numeric OWS1 level code.
func (l Level) Code() int {
	return int(l.Clamp())
}

// Clamp snaps an arbitrary numeric value onto a defined OWS1 level.
// Values below DEBUG become DEBUG, values above CRITICAL become CRITICAL,
// and values between two levels round down to the lower one.
func (l Level) Clamp() Level {
	switch {
	case l <= LevelDebug:
		return LevelDebug
	case l >= LevelCritical:
		return LevelCritical
	case l >= LevelError:
		return LevelError
	case l >= LevelWarning:
		return LevelWarning
	case l >= LevelNotice:
		return LevelNotice
	default:
		return LevelInfo
	}
}

// ParseLevel converts a level name into a Level. Matching is
// case-insensitive and accepts the common alias WARN for WARNING.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "NOTICE":
		return LevelNotice, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL", "FATAL":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown level %q", name)
	}
}
