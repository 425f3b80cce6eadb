package watcher

import (
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates the watched file appeared.
	OpCreate Operation = iota
	// OpModify indicates the watched file changed.
	OpModify
	// OpDelete indicates the watched file is gone. Renames away from a
	// watched path count as deletes; editors that replace a file via
	// rename follow with a create, which coalesces back to a modify.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a coalesced file system event.
type FileEvent struct {
	// Path is the file path as the caller supplied it.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// Debounce is the quiet period before coalesced events are emitted.
	// Default: 500ms.
	Debounce time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 64.
	EventBufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:        500 * time.Millisecond,
		EventBufferSize: 64,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce == 0 {
		o.Debounce = defaults.Debounce
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
