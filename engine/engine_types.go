package engine

import (
	"context"
	"time"

	"ctagline/config"
	"ctagline/display"
	"ctagline/document"
	"ctagline/editor"
	"ctagline/generator"
)

// Editor is the engine's view of the connected editor.
// Implemented by editor.NvimEditor.
type Editor interface {
	Snapshot() (*editor.Snapshot, error)
	ShowStatus(window int, name string, ruler bool) error
	ShowTitle(name string) error
	RegisterEventHandler(handler func(event string, args editor.EventArgs)) error
	RegisterLookupHandler(handler func(buffer, line int) string) error
}

// Generator starts tag generation runs.
// Implemented by generator.Generator.
type Generator interface {
	Generate(ctx context.Context, doc *document.Document, done func(*generator.Result)) (document.Run, error)
}

type EngineConfig struct {
	EnableGeneration bool
	RegenerateOnSave bool
	Display          display.Modes
	RefreshInterval  time.Duration
	MaxDocuments     int
}

// EngineConfigFrom picks the engine's options out of the daemon config.
func EngineConfigFrom(c config.Config) EngineConfig {
	return EngineConfig{
		EnableGeneration: c.EnableGeneration,
		RegenerateOnSave: c.RegenerateOnSave,
		Display: display.Modes{
			StatusLine: c.ShowInStatusLine,
			Title:      c.ShowInTitle,
		},
		RefreshInterval: c.Interval(),
		MaxDocuments:    c.MaxDocuments,
	}
}
