package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"ctagline/display"
	"ctagline/document"
	"ctagline/editor"
	"ctagline/generator"
	"ctagline/metrics"
	"ctagline/tags"
)

// --- Mock implementations ---

type statusCall struct {
	window int
	name   string
	ruler  bool
}

// mockEditor implements the Editor interface for testing
type mockEditor struct {
	mu       sync.Mutex
	buffer   int
	path     string
	window   int
	line     int
	ruler    bool
	snapErr  error
	eventFn  func(string, editor.EventArgs)
	lookupFn func(int, int) string

	// Track method calls
	snapshotCalls int
	statusCalls   []statusCall
	titleCalls    []string
}

func newMockEditor() *mockEditor {
	return &mockEditor{
		buffer: 1,
		path:   "main.c",
		window: 1000,
		line:   1,
	}
}

func (m *mockEditor) Snapshot() (*editor.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotCalls++
	if m.snapErr != nil {
		return nil, m.snapErr
	}
	return &editor.Snapshot{
		Buffer: m.buffer,
		Path:   m.path,
		Window: m.window,
		Line:   m.line,
		Ruler:  m.ruler,
	}, nil
}

func (m *mockEditor) ShowStatus(window int, name string, ruler bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls = append(m.statusCalls, statusCall{window: window, name: name, ruler: ruler})
	return nil
}

func (m *mockEditor) ShowTitle(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titleCalls = append(m.titleCalls, name)
	return nil
}

func (m *mockEditor) RegisterEventHandler(handler func(string, editor.EventArgs)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventFn = handler
	return nil
}

func (m *mockEditor) RegisterLookupHandler(handler func(int, int) string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupFn = handler
	return nil
}

func (m *mockEditor) moveTo(window, buffer, line int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = window
	m.buffer = buffer
	m.line = line
}

func (m *mockEditor) setRuler(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruler = on
}

func (m *mockEditor) statuses() []statusCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]statusCall(nil), m.statusCalls...)
}

func (m *mockEditor) titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titleCalls...)
}

func (m *mockEditor) sendEvent(name string, args editor.EventArgs) {
	m.mu.Lock()
	fn := m.eventFn
	m.mu.Unlock()
	fn(name, args)
}

// pendingRun is a started run whose completion the test triggers by hand.
type pendingRun struct {
	doc  *document.Document
	run  document.Run
	done func(*generator.Result)
}

// mockGenerator implements the Generator interface for testing. Runs never
// complete on their own.
type mockGenerator struct {
	mu    sync.Mutex
	err   error
	runs  []pendingRun
	calls int
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{}
}

func (g *mockGenerator) Generate(ctx context.Context, doc *document.Document, done func(*generator.Result)) (document.Run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return document.Run{}, g.err
	}
	run := doc.BeginRun()
	g.runs = append(g.runs, pendingRun{doc: doc, run: run, done: done})
	return run, nil
}

func (g *mockGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *mockGenerator) pending(i int) pendingRun {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runs[i]
}

// result builds the completion of pending run i carrying list.
func (g *mockGenerator) result(i int, list *tags.List) *generator.Result {
	p := g.pending(i)
	return &generator.Result{
		Doc:      p.doc,
		Run:      p.run,
		List:     list,
		Parsed:   list.Len(),
		Duration: time.Millisecond,
	}
}

func (g *mockGenerator) failure(i int) *generator.Result {
	p := g.pending(i)
	return &generator.Result{
		Doc: p.doc,
		Run: p.run,
		Err: errors.New("tag tool failed: exit status 1"),
	}
}

// --- Helpers ---

func defaultTestConfig() EngineConfig {
	return EngineConfig{
		EnableGeneration: true,
		RegenerateOnSave: true,
		Display:          display.Modes{StatusLine: true, Title: true},
		RefreshInterval:  time.Hour,
		MaxDocuments:     16,
	}
}

func createTestEngine(ed *mockEditor, gen *mockGenerator) *Engine {
	return createTestEngineWithConfig(ed, gen, defaultTestConfig())
}

func createTestEngineWithConfig(ed *mockEditor, gen *mockGenerator, config EngineConfig) *Engine {
	eng, err := NewEngine(gen, config, metrics.NewTracker())
	if err != nil {
		panic(err)
	}
	if err := eng.SetEditor(ed); err != nil {
		panic(err)
	}
	return eng
}

func listOf(records ...tags.Record) *tags.List {
	return tags.NewList(records)
}

func bufArgs(buf int, path string) editor.EventArgs {
	return editor.EventArgs{Buf: buf, Path: path}
}
