package player

import "fmt"

// EventKind tags the closed set of events an Adapter raises.
type EventKind int

const (
	EventReady EventKind = iota + 1
	EventEnded
	EventError
	EventLost
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	case EventLost:
		return "lost"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is raised by an Adapter to its Handler. Code is only set for
// EventError. Instance identifies the widget instance that produced it.
type Event struct {
	Kind     EventKind
	Code     int
	Instance uint64
}

// Handler consumes adapter events. Handlers are invoked from tasks on the
// adapter's executor.
type Handler interface {
	HandlePlayerEvent(Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event)

func (f HandlerFunc) HandlePlayerEvent(e Event) { f(e) }

// Raw widget event names reported by the embed platform.
const (
	WidgetReady       = "ready"
	WidgetStateChange = "stateChange"
	WidgetError       = "error"

	// WidgetLost is raised by a transport, not the platform, when the page
	// hosting the widget goes away.
	WidgetLost = "transportLost"
)

// Platform player states carried by WidgetStateChange.
const (
	StateUnstarted = -1
	StateEnded     = 0
	StatePlaying   = 1
	StatePaused    = 2
)

// Platform error codes meaning the owner disabled playback on external sites.
const (
	CodeEmbedDisabled    = 101
	CodeEmbedDisabledAlt = 150
)

// WidgetEvent is an untyped event as the embed platform reports it.
type WidgetEvent struct {
	Name string `json:"name"`
	Data int    `json:"data"`
}

// IsPlaybackDisabled reports whether code is one of the fatal "embedding
// disabled" platform codes.
func IsPlaybackDisabled(code int) bool {
	return code == CodeEmbedDisabled || code == CodeEmbedDisabledAlt
}
