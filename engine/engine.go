package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ctagline/display"
	"ctagline/document"
	"ctagline/editor"
	"ctagline/generator"
	"ctagline/logger"
	"ctagline/metrics"
	"ctagline/tags"
)

// Engine owns the per-buffer tag state and the display cache. All state
// changes happen on the event loop; generator goroutines only post results.
type Engine struct {
	// editor is written under both mu and editorMu; the lookup handler only
	// takes editorMu.
	editor    Editor
	editorMu  sync.RWMutex
	generator Generator
	registry  *document.Registry
	cache     *display.Cache
	metrics   *metrics.Tracker
	config    EngineConfig

	mu        sync.Mutex
	eventChan chan Event

	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once
}

func NewEngine(gen Generator, config EngineConfig, tracker *metrics.Tracker) (*Engine, error) {
	registry, err := document.NewRegistry(config.MaxDocuments)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = metrics.NewTracker()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		generator:  gen,
		registry:   registry,
		cache:      display.NewCache(config.Display),
		metrics:    tracker,
		config:     config,
		eventChan:  make(chan Event, 100),
		mainCtx:    ctx,
		mainCancel: cancel,
	}, nil
}

// SetEditor attaches a freshly connected editor. Buffer and window handles
// are only unique within one editor instance, so documents and display
// state kept for a previous editor are dropped, and events or lookups still
// arriving from it are ignored.
func (e *Engine) SetEditor(ed Editor) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil
	}

	e.attach(ed)

	if err := ed.RegisterEventHandler(func(name string, args editor.EventArgs) {
		e.onEditorEvent(ed, name, args)
	}); err != nil {
		return fmt.Errorf("register event handler: %w", err)
	}
	if err := ed.RegisterLookupHandler(func(buffer, line int) string {
		if !e.attached(ed) {
			return ""
		}
		return e.Lookup(buffer, line)
	}); err != nil {
		return fmt.Errorf("register lookup handler: %w", err)
	}
	return nil
}

// attach must be called with mu held.
func (e *Engine) attach(ed Editor) {
	e.editorMu.Lock()
	e.editor = ed
	e.editorMu.Unlock()

	e.registry.Purge()
	e.cache = display.NewCache(e.config.Display)
}

func (e *Engine) attached(ed Editor) bool {
	e.editorMu.RLock()
	defer e.editorMu.RUnlock()
	return e.editor == ed
}

func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}

	e.mainCancel()
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)
	loopCtx := e.mainCtx
	e.mu.Unlock()

	go e.eventLoop(loopCtx)
	logger.Info("engine started")
}

// Stop cancels the event loop and every run still in flight. The event
// channel stays open so late senders never panic.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		logger.Info("stopping engine...")
		e.stopped = true
		e.mainCancel()
		e.attach(nil)
		logger.Info("engine stopped (%s)", e.metrics.Snapshot())
	})
}

// Stats returns the run counters.
func (e *Engine) Stats() metrics.Stats {
	return e.metrics.Snapshot()
}

// Lookup returns the name of the symbol enclosing line in buffer, or "" when
// the buffer has no tags yet. It does not take the engine lock: the editor
// may call it while the event loop is waiting on that same editor.
func (e *Engine) Lookup(buffer, line int) string {
	doc, ok := e.registry.Get(buffer)
	if !ok {
		return ""
	}
	return doc.Lookup(line)
}

func (e *Engine) onEditorEvent(source Editor, name string, args editor.EventArgs) {
	eventType := EventTypeFromString(name)
	if eventType == "" {
		logger.Warn("unknown editor event %q", name)
		return
	}

	e.mu.Lock()
	current := e.editor == source
	stopped := e.stopped
	ctx := e.mainCtx
	e.mu.Unlock()

	if stopped {
		return
	}
	if !current {
		logger.Debug("dropping %s from a detached editor", eventType)
		return
	}
	e.post(ctx, Event{Type: eventType, Args: args, Source: source})
}

func (e *Engine) post(ctx context.Context, event Event) {
	select {
	case e.eventChan <- event:
	case <-ctx.Done():
	}
}

func (e *Engine) eventLoop(ctx context.Context) {
	interval := e.config.RefreshInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatch(Event{Type: EventRefreshTick})
		case event := <-e.eventChan:
			e.dispatch(event)
		}
	}
}

// dispatch runs one event with its own panic recovery so a bad event cannot
// take the loop down.
func (e *Engine) dispatch(event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panic recovered for event %v: %v", event.Type, r)
		}
	}()
	e.handleEvent(event)
}

func (e *Engine) handleEvent(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}
	if event.Source != nil && event.Source != e.editor {
		logger.Debug("dropping queued %s from a detached editor", event.Type)
		return
	}

	if event.Type != EventRefreshTick {
		logger.Debug("handle event: %s %+v", event.Type, event.Args)
	}

	switch event.Type {
	case EventBufRead, EventGenerate:
		e.generate(event.Args)
	case EventBufWrite:
		if e.config.RegenerateOnSave {
			e.generate(event.Args)
		}
	case EventBufDelete:
		if e.registry.Close(event.Args.Buf) {
			logger.Debug("closed buffer %d", event.Args.Buf)
		}
	case EventWinClosed:
		e.cache.Forget(event.Args.Win)
	case EventCursorHold, EventRefreshTick:
		e.refreshDisplay()
	case EventGenerationDone:
		e.handleGenerationDone(event.Data.(*generator.Result))
	case EventStats:
		logger.Info("stats: %s (%d buffers)", e.metrics.Snapshot(), e.registry.Len())
	}
}

func (e *Engine) generate(args editor.EventArgs) {
	if !e.config.EnableGeneration {
		return
	}

	doc := e.registry.Open(args.Buf, args.Path)
	ctx := e.mainCtx
	run, err := e.generator.Generate(ctx, doc, func(res *generator.Result) {
		e.post(ctx, Event{Type: EventGenerationDone, Data: res})
	})
	if err != nil {
		e.metrics.RunSkipped()
		if errors.Is(err, generator.ErrToolUnavailable) {
			logger.Warn("tag generation for buffer %d skipped: %v", args.Buf, err)
		} else {
			logger.Debug("tag generation for buffer %d skipped: %v", args.Buf, err)
		}
		return
	}

	e.metrics.RunStarted()
	logger.Debug("started run %s (seq %d) for %s", run.ID, run.Seq, run.Path)
}

func (e *Engine) handleGenerationDone(res *generator.Result) {
	if res.Err != nil {
		e.metrics.RunFailed()
		if errors.Is(res.Err, context.Canceled) {
			logger.Debug("run %s canceled", res.Run.ID)
		} else {
			logger.Warn("run %s for %s failed: %v", res.Run.ID, res.Run.Path, res.Err)
		}
		return
	}

	if !e.registry.Holds(res.Doc) {
		logger.Debug("dropping run %s: buffer %d is closed", res.Run.ID, res.Run.Buffer)
		return
	}

	previous := res.Doc.Tags()
	if !res.Doc.Publish(res.Run, res.List) {
		e.metrics.RunSuperseded()
		logger.Debug("run %s superseded by a newer run", res.Run.ID)
		return
	}

	e.metrics.RunPublished(res.List.Len(), res.Duration)
	if logger.Enabled(logger.LogLevelDebug) {
		summary := tags.Summarize(previous, res.List)
		if summary.Unchanged() {
			logger.Debug("run %s: %d tags unchanged in %v", res.Run.ID, summary.Total, res.Duration)
		} else {
			logger.Debug("run %s: %d tags (+%d -%d) in %v",
				res.Run.ID, summary.Total, summary.Added, summary.Removed, res.Duration)
		}
	}

	e.refreshDisplay()
}

// refreshDisplay pushes the symbol under the cursor to the editor when it
// differs from what was last shown.
func (e *Engine) refreshDisplay() {
	if e.editor == nil {
		return
	}

	snap, err := e.editor.Snapshot()
	if err != nil {
		logger.Debug("refresh skipped: %v", err)
		return
	}

	name := e.Lookup(snap.Buffer, snap.Line)
	update := e.cache.Refresh(snap.Window, name, snap.Ruler)

	if update.StatusLine {
		if err := e.editor.ShowStatus(snap.Window, name, snap.Ruler); err != nil {
			logger.Warn("status line update failed: %v", err)
		}
	}
	if update.Title {
		if err := e.editor.ShowTitle(name); err != nil {
			logger.Warn("title update failed: %v", err)
		}
	}
}
