package engine

import "ctagline/editor"

type EventType string

// Events sent by the Lua autocommands.
const (
	EventBufRead    EventType = "buf_read"    // file opened in a tagged file type
	EventBufWrite   EventType = "buf_write"   // file saved
	EventBufDelete  EventType = "buf_delete"  // buffer wiped
	EventWinClosed  EventType = "win_closed"  // window closed
	EventGenerate   EventType = "generate"    // explicit user command
	EventCursorHold EventType = "cursor_hold" // cursor idle, refresh now
	EventStats      EventType = "stats"       // log run counters
)

// Events raised inside the daemon.
const (
	EventRefreshTick    EventType = "refresh_tick"
	EventGenerationDone EventType = "generation_done"
)

var editorEvents = map[string]EventType{}

func init() {
	for _, t := range []EventType{
		EventBufRead,
		EventBufWrite,
		EventBufDelete,
		EventWinClosed,
		EventGenerate,
		EventCursorHold,
		EventStats,
	} {
		editorEvents[string(t)] = t
	}
}

// EventTypeFromString maps an editor event name to its type. Internal events
// cannot be raised from the editor and map to "".
func EventTypeFromString(s string) EventType {
	return editorEvents[s]
}

type Event struct {
	Type EventType
	Args editor.EventArgs
	Data any

	// Source is the editor that raised the event; nil for internal events.
	Source Editor
}
