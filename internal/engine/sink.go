package engine

import "fmt"

// Level classifies progress messages for the presentation layer.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the console tag for the level.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "ok"
	case LevelWarning:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Sink receives human-readable progress lines. The engine never writes to a
// UI directly; the console/GUI layer implements this.
type Sink func(level Level, msg string)

// NopSink discards all progress lines.
func NopSink(Level, string) {}

func (s Sink) emitf(level Level, format string, args ...interface{}) {
	if s != nil {
		s(level, fmt.Sprintf(format, args...))
	}
}
