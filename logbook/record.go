package logbook

import (
	"strings"
	"time"
)

// Record is one log event as written to, or read back from, a log file.
type Record struct {
	Timestamp time.Time
	Level     Level
	Tags      []string
	Source    string // originating file:line, opaque to the query engine
	Host      string
	Message   string
}

type Level int

const (
	levelUnset Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel matches a level token case-insensitively. WARNING is accepted
// as an alias for WARN. The second return value reports whether the token
// was recognized; callers decide how lenient to be with the rest.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "CRITICAL":
		return CRITICAL, true
	default:
		return levelUnset, false
	}
}

// DailyLogName returns the conventional file name for t's calendar date.
func DailyLogName(t time.Time) string {
	return "LOG_DAILY_" + t.Format("2006-01-02") + ".log"
}
