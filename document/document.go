package document

import (
	"sync"
	"sync/atomic"
	"time"

	"ctagline/tags"

	"github.com/google/uuid"
)

// Run identifies one generation for a document. Seq orders runs of the same
// document by start time; ID only tags log lines.
type Run struct {
	Seq     uint64
	ID      string
	Buffer  int
	Path    string
	Started time.Time
}

// Document is the per-buffer context handed to the generator. It owns the
// published tag list and the run sequence counters.
type Document struct {
	Buffer int

	mu           sync.Mutex
	path         string
	nextSeq      uint64
	publishedSeq uint64

	list atomic.Pointer[tags.List]
}

// New creates a document with an empty tag list.
func New(buffer int, path string) *Document {
	return &Document{Buffer: buffer, path: path}
}

func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// SetPath records a rename (:saveas, :file).
func (d *Document) SetPath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.path = path
}

// Tags returns the current list. Readers always see a complete list.
func (d *Document) Tags() *tags.List {
	return d.list.Load()
}

// Lookup returns the symbol enclosing line in the current list.
func (d *Document) Lookup(line int) string {
	return tags.Lookup(d.Tags(), line)
}

// BeginRun hands out the next run. Each call supersedes every earlier run.
func (d *Document) BeginRun() Run {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSeq++
	return Run{
		Seq:     d.nextSeq,
		ID:      uuid.NewString(),
		Buffer:  d.Buffer,
		Path:    d.path,
		Started: time.Now(),
	}
}

// Publish replaces the tag list with list if run started after the run that
// produced the current list. A run that finishes after a newer run has
// already published is dropped, so the newest started run wins whatever
// order the runs complete in. Returns whether the list was replaced.
func (d *Document) Publish(run Run, list *tags.List) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if run.Seq <= d.publishedSeq {
		return false
	}
	d.publishedSeq = run.Seq
	d.list.Store(list)
	return true
}

// Pending reports whether a run newer than the published one has started.
func (d *Document) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nextSeq > d.publishedSeq
}
