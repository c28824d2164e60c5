package engine

import "fmt"

// LogEntry is one line of the player-facing journal.
type LogEntry struct {
	Year    int
	Kind    LogKind
	Topic   LogTopic
	Message string
}

func (e LogEntry) String() string {
	return fmt.Sprintf("%d %s", e.Year, e.Message)
}

// Sink receives every journal entry as it is emitted. A failing sink is logged and skipped.
type Sink interface {
	Record(entry LogEntry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(LogEntry) error

func (f SinkFunc) Record(e LogEntry) error { return f(e) }
