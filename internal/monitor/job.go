package monitor

import (
	"context"
	"sync"
	"time"
)

// Job is the per-URL monitoring state. Exactly one goroutine runs a job's
// tick loop, so the check state (baseline, counters) is only ever touched
// sequentially; the mutex guards the cross-goroutine reads done for status
// reporting.
type Job struct {
	urlID int64
	url   string

	cancel context.CancelFunc
	done   chan struct{}

	mu              sync.Mutex
	baseline        string
	hasBaseline     bool
	checksDone      int
	changesDetected int
	startedAt       time.Time
}

// URLID returns the monitored URL's row ID.
func (j *Job) URLID() int64 {
	return j.urlID
}

// URL returns the monitored URL.
func (j *Job) URL() string {
	return j.url
}

// Stop cancels the job's tick loop. It does not wait for the loop to exit.
func (j *Job) Stop() {
	j.cancel()
}

// Done is closed when the job's tick loop has fully exited.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Counters returns the job's live check and change counters.
func (j *Job) Counters() (checksDone, changesDetected int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.checksDone, j.changesDetected
}

func (j *Job) snapshotBaseline() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.baseline, j.hasBaseline
}

func (j *Job) setBaseline(content string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.baseline = content
	j.hasBaseline = true
}

func (j *Job) recordCheck(changed bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.checksDone++
	if changed {
		j.changesDetected++
	}
}
