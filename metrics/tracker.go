package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time copy of the tracker counters.
type Stats struct {
	Started    int64
	Published  int64
	Superseded int64
	Failed     int64
	Skipped    int64
	Records    int64
	LastRun    time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("runs started=%d published=%d superseded=%d failed=%d skipped=%d records=%d last=%v",
		s.Started, s.Published, s.Superseded, s.Failed, s.Skipped, s.Records, s.LastRun)
}

// Tracker counts generation outcomes for the lifetime of the daemon.
// Nothing leaves the process; counters are only logged.
type Tracker struct {
	started    atomic.Int64
	published  atomic.Int64
	superseded atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
	records    atomic.Int64
	lastRunNs  atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// RunStarted counts a run whose tool process was launched.
func (t *Tracker) RunStarted() { t.started.Add(1) }

// RunSkipped counts a generate request that never started a run.
func (t *Tracker) RunSkipped() { t.skipped.Add(1) }

// RunFailed counts a run whose result was dropped because the tool failed.
func (t *Tracker) RunFailed() { t.failed.Add(1) }

// RunSuperseded counts a finished run that lost to a newer one.
func (t *Tracker) RunSuperseded() { t.superseded.Add(1) }

// RunPublished counts a run whose list replaced the document's tags.
func (t *Tracker) RunPublished(records int, took time.Duration) {
	t.published.Add(1)
	t.records.Add(int64(records))
	t.lastRunNs.Store(int64(took))
}

func (t *Tracker) Snapshot() Stats {
	return Stats{
		Started:    t.started.Load(),
		Published:  t.published.Load(),
		Superseded: t.superseded.Load(),
		Failed:     t.failed.Load(),
		Skipped:    t.skipped.Load(),
		Records:    t.records.Load(),
		LastRun:    time.Duration(t.lastRunNs.Load()),
	}
}
