package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Counts(t *testing.T) {
	tr := NewTracker()

	tr.RunStarted()
	tr.RunStarted()
	tr.RunStarted()
	tr.RunSkipped()
	tr.RunFailed()
	tr.RunSuperseded()
	tr.RunPublished(12, 40*time.Millisecond)

	s := tr.Snapshot()
	assert.Equal(t, int64(3), s.Started)
	assert.Equal(t, int64(1), s.Skipped)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.Superseded)
	assert.Equal(t, int64(1), s.Published)
	assert.Equal(t, int64(12), s.Records)
	assert.Equal(t, 40*time.Millisecond, s.LastRun)
	assert.Contains(t, s.String(), "published=1")
}

func TestTracker_ConcurrentUse(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RunStarted()
			tr.RunPublished(2, time.Millisecond)
		}()
	}
	wg.Wait()

	s := tr.Snapshot()
	assert.Equal(t, int64(50), s.Started)
	assert.Equal(t, int64(100), s.Records)
}
