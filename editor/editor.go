package editor

import (
	"errors"
	"fmt"

	"ctagline/logger"

	"github.com/neovim/go-client/nvim"
)

// RPC method names shared with the Lua side of the plugin.
const (
	EventMethod  = "ctagline_event"
	LookupMethod = "ctagline_lookup"
)

var ErrNoClient = errors.New("nvim client not set")

// Snapshot is the editor state a display refresh needs.
type Snapshot struct {
	Buffer int
	Path   string
	Window int
	Line   int // 1-indexed cursor line
	Ruler  bool
}

// EventArgs is the table the Lua autocommands send with every event.
// Fields irrelevant to an event are zero.
type EventArgs struct {
	Buf  int    `msgpack:"buf"`
	Win  int    `msgpack:"win"`
	Path string `msgpack:"path"`
}

// NvimEditor talks to one Neovim instance over msgpack-RPC.
type NvimEditor struct {
	client *nvim.Nvim
}

func New() *NvimEditor {
	return &NvimEditor{}
}

// SetClient points the editor at a (new) connection.
func (e *NvimEditor) SetClient(n *nvim.Nvim) {
	e.client = n
}

// Snapshot reads buffer, window, cursor and ruler in one round-trip.
func (e *NvimEditor) Snapshot() (*Snapshot, error) {
	defer logger.Trace("editor.Snapshot")()
	if e.client == nil {
		return nil, ErrNoClient
	}

	batch := e.client.NewBatch()

	var buf nvim.Buffer
	var path string
	var win nvim.Window
	var cursor [2]int
	var ruler bool

	batch.CurrentBuffer(&buf)
	batch.BufferName(nvim.Buffer(0), &path)
	batch.CurrentWindow(&win)
	batch.WindowCursor(nvim.Window(0), &cursor)
	batch.ExecLua(`return vim.o.ruler`, &ruler, nil)

	if err := batch.Execute(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	return &Snapshot{
		Buffer: int(buf),
		Path:   path,
		Window: int(win),
		Line:   cursor[0],
		Ruler:  ruler,
	}, nil
}

// ShowStatus hands the symbol name for window to the plugin's status line
// renderer. ruler tells it which layout to use.
func (e *NvimEditor) ShowStatus(window int, name string, ruler bool) error {
	logger.Debug("sending to lua on_status: win=%d name=%q ruler=%v", window, name, ruler)
	return e.callLua("require('ctagline').on_status(...)", window, name, ruler)
}

// ShowTitle hands the symbol name to the plugin's title renderer.
func (e *NvimEditor) ShowTitle(name string) error {
	logger.Debug("sending to lua on_title: name=%q", name)
	return e.callLua("require('ctagline').on_title(...)", name)
}

// RegisterEventHandler routes ctagline_event notifications to handler.
func (e *NvimEditor) RegisterEventHandler(handler func(event string, args EventArgs)) error {
	if e.client == nil {
		return ErrNoClient
	}
	return e.client.RegisterHandler(EventMethod, func(_ *nvim.Nvim, event string, args EventArgs) {
		handler(event, args)
	})
}

// RegisterLookupHandler answers ctagline_lookup(buf, line) requests.
func (e *NvimEditor) RegisterLookupHandler(handler func(buffer, line int) string) error {
	if e.client == nil {
		return ErrNoClient
	}
	return e.client.RegisterHandler(LookupMethod, func(_ *nvim.Nvim, buffer, line int) (string, error) {
		return handler(buffer, line), nil
	})
}

func (e *NvimEditor) callLua(code string, args ...any) error {
	if e.client == nil {
		return ErrNoClient
	}
	batch := e.client.NewBatch()
	batch.ExecLua(code, nil, args...)
	if err := batch.Execute(); err != nil {
		logger.Error("error executing lua function: %v", err)
		return err
	}
	return nil
}
