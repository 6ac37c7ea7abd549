package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lab007/webalert/internal/config"
	"github.com/lab007/webalert/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHarness struct {
	store      *fakeStore
	fetcher    *fakeFetcher
	dispatcher *fakeDispatcher
	service    *Service
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	store := newFakeStore()
	fetch := &fakeFetcher{}
	dispatch := &fakeDispatcher{}
	cfg := config.NewDefaultMonitorConfig()
	service := NewService(store, fetch, dispatch, NewRegistry(), &cfg, nil, zerolog.Nop())
	t.Cleanup(service.Shutdown)
	return &testHarness{store: store, fetcher: fetch, dispatcher: dispatch, service: service}
}

// newJob builds a job handle without spawning its tick loop, so tests can
// drive ticks deterministically.
func (h *testHarness) newJob(urlID int64, url string) *Job {
	return &Job{
		urlID:     urlID,
		url:       url,
		cancel:    func() {},
		done:      make(chan struct{}),
		startedAt: time.Now().UTC(),
	}
}

func TestBaselineNotCounted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())
	h.fetcher.push("<p>first snapshot</p>", nil)

	job := h.newJob(u.ID, u.WebsiteURL)
	require.True(t, h.service.tick(ctx, job))

	// Baseline fetch: no change, no alert, counter reset, raw content saved.
	assert.Zero(t, h.dispatcher.changeCount())
	assert.Zero(t, h.store.recordCount())
	assert.Equal(t, "<p>first snapshot</p>", h.store.urlByID(u.ID).LastContent)
	assert.Equal(t, 0, h.store.urlByID(u.ID).CheckCount)

	checks, changes := job.Counters()
	assert.Zero(t, checks)
	assert.Zero(t, changes)

	// An identical follow-up tick counts as a check but detects nothing.
	require.True(t, h.service.tick(ctx, job))
	assert.Zero(t, h.dispatcher.changeCount())
	assert.Equal(t, 1, h.store.urlByID(u.ID).CheckCount)
}

func TestChangeDetectedOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	sub := h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())

	h.fetcher.push("<p>price: 100</p>", nil)
	job := h.newJob(u.ID, u.WebsiteURL)
	require.True(t, h.service.tick(ctx, job)) // baseline

	h.fetcher.push("<p>price: 150</p>", nil)
	require.True(t, h.service.tick(ctx, job))

	// Exactly one change record and one fan-out, to the eligible subscriber.
	require.Equal(t, 1, h.store.recordCount())
	require.Equal(t, 1, h.dispatcher.changeCount())
	assert.Equal(t, []int64{sub.ID}, h.dispatcher.changes[0].subIDs)
	assert.Equal(t, "<p>price: 100</p>", h.dispatcher.changes[0].event.ContentBefore)
	assert.Equal(t, "<p>price: 150</p>", h.dispatcher.changes[0].event.ContentAfter)

	// The baseline advanced: the same content again raises nothing new.
	require.True(t, h.service.tick(ctx, job))
	assert.Equal(t, 1, h.store.recordCount())
	assert.Equal(t, 1, h.dispatcher.changeCount())

	_, changes := job.Counters()
	assert.Equal(t, 1, changes)
}

func TestAdRotationIsNotAChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())

	h.fetcher.push(`<a href="/api/ads/click?ad=111">Deal</a><p>story text</p>`, nil)
	job := h.newJob(u.ID, u.WebsiteURL)
	require.True(t, h.service.tick(ctx, job))

	h.fetcher.push(`<a href="/api/ads/click?ad=222">Deal</a><p>story text</p>`, nil)
	require.True(t, h.service.tick(ctx, job))

	assert.Zero(t, h.dispatcher.changeCount(), "rotating ad ids must not alert")
	assert.Zero(t, h.store.recordCount())
}

func TestFetchFailureSkipsTick(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())

	h.fetcher.push("<p>v1</p>", nil)
	job := h.newJob(u.ID, u.WebsiteURL)
	require.True(t, h.service.tick(ctx, job)) // baseline

	lastCheck := h.store.urlByID(u.ID).LastCheck
	h.fetcher.push("", errors.New("connection refused"))
	require.True(t, h.service.tick(ctx, job), "fetch failure must not kill the job")
	assert.Zero(t, h.dispatcher.changeCount())
	assert.Equal(t, 0, h.store.urlByID(u.ID).CheckCount, "failed fetch is not a counted check")
	assert.Equal(t, lastCheck, h.store.urlByID(u.ID).LastCheck, "a failed fetch must not advance last_check")

	// The baseline survived the failure; the next divergence still alerts.
	h.fetcher.push("<p>v2</p>", nil)
	require.True(t, h.service.tick(ctx, job))
	require.Equal(t, 1, h.dispatcher.changeCount())
	assert.Equal(t, "<p>v1</p>", h.dispatcher.changes[0].event.ContentBefore)
}

func TestEligibilityWindowFiltersFanOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	expired := h.store.addSubscriber(u.ID, "old@example.com", "", 10*time.Minute, time.Now().UTC().Add(-time.Hour))
	current := h.store.addSubscriber(u.ID, "new@example.com", "", time.Hour, time.Now().UTC())

	h.fetcher.push("<p>v1</p>", nil)
	job := h.newJob(u.ID, u.WebsiteURL)
	require.True(t, h.service.tick(ctx, job))

	h.fetcher.push("<p>v2</p>", nil)
	require.True(t, h.service.tick(ctx, job))

	require.Equal(t, 1, h.dispatcher.changeCount())
	assert.Equal(t, []int64{current.ID}, h.dispatcher.changes[0].subIDs)
	assert.NotContains(t, h.dispatcher.changes[0].subIDs, expired.ID)
}

func TestRetireWhenNoEligibleSubscribers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	lapsedA := h.store.addSubscriber(u.ID, "a@example.com", "", 10*time.Minute, time.Now().UTC().Add(-time.Hour))
	lapsedB := h.store.addSubscriber(u.ID, "b@example.com", "", 10*time.Minute, time.Now().UTC().Add(-time.Hour))

	job := h.newJob(u.ID, u.WebsiteURL)
	assert.False(t, h.service.tick(ctx, job), "tick must signal the loop to stop")

	// Summary goes to every subscriber ever, even the lapsed ones.
	require.Equal(t, 1, h.dispatcher.summaryCount())
	assert.ElementsMatch(t, []int64{lapsedA.ID, lapsedB.ID}, h.dispatcher.summaries[0].subIDs)
	assert.False(t, h.store.urlByID(u.ID).IsActive, "retired URL must be deactivated")
}

func TestEligibilityErrorSkipsTick(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	h.store.failEligible = errors.New("db locked")

	job := h.newJob(u.ID, u.WebsiteURL)
	assert.True(t, h.service.tick(ctx, job), "store failure must not retire the job")
	assert.Zero(t, h.dispatcher.summaryCount())
	assert.True(t, h.store.urlByID(u.ID).IsActive)
}

func TestRecordFailureSuppressesNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())

	h.fetcher.push("<p>v1</p>", nil)
	job := h.newJob(u.ID, u.WebsiteURL)
	require.True(t, h.service.tick(ctx, job))

	h.store.failRecord = errors.New("disk full")
	h.fetcher.push("<p>v2</p>", nil)
	require.True(t, h.service.tick(ctx, job))

	assert.Zero(t, h.dispatcher.changeCount(), "no record, no notification")

	// The baseline still advanced, so the same content later stays quiet.
	h.store.failRecord = nil
	require.True(t, h.service.tick(ctx, job))
	assert.Zero(t, h.dispatcher.changeCount())
}

func TestStartMonitoringIdempotentPerURL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fetcher.push("<p>v1</p>", nil)

	urlID1, subID1, err := h.service.StartMonitoring(ctx, "Example.com/page#x", models.NewSubscription{
		Email: "a@example.com", PollingDuration: time.Hour,
	})
	require.NoError(t, err)

	urlID2, subID2, err := h.service.StartMonitoring(ctx, "http://example.com/page", models.NewSubscription{
		Email: "b@example.com", PollingDuration: time.Hour,
	})
	require.NoError(t, err)

	// Equivalent URLs share a row and a single job; subscribers are distinct.
	assert.Equal(t, urlID1, urlID2)
	assert.NotEqual(t, subID1, subID2)
	assert.Equal(t, 1, h.service.registry.Len())

	h.dispatcher.mu.Lock()
	welcomes := len(h.dispatcher.welcomes)
	h.dispatcher.mu.Unlock()
	assert.Equal(t, 2, welcomes)
}

func TestStopSubscriber(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u := h.store.addURL("http://example.com", true, "")
	sub := h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())

	require.NoError(t, h.service.StopSubscriber(ctx, sub.ID))
	got, err := h.store.GetSubscriber(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Now the job retires on its next tick.
	job := h.newJob(u.ID, u.WebsiteURL)
	assert.False(t, h.service.tick(ctx, job))

	assert.Error(t, h.service.StopSubscriber(ctx, 9999))
}

func TestReplayActiveURLs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.store.addURL("http://a.example.com", true, "<p>saved baseline</p>")
	h.store.addSubscriber(a.ID, "a@example.com", "", time.Hour, time.Now().UTC())
	_, err := h.store.RecordChange(ctx, a.ID, "x", "y", time.Now().UTC())
	require.NoError(t, err)

	b := h.store.addURL("http://b.example.com", true, "")
	h.store.addSubscriber(b.ID, "b@example.com", "", time.Hour, time.Now().UTC())

	h.store.addURL("http://inactive.example.com", false, "")

	h.fetcher.push("<p>saved baseline</p>", nil)
	require.NoError(t, h.service.ReplayActiveURLs(ctx))

	// One job per active URL, none for the inactive one.
	assert.Equal(t, 2, h.service.registry.Len())

	// The change counter came back from history.
	jobA := h.service.registry.Get(a.ID)
	require.NotNil(t, jobA)
	_, changes := jobA.Counters()
	assert.Equal(t, 1, changes)

	// The baseline came back from the persisted content.
	baseline, hasBaseline := jobA.snapshotBaseline()
	assert.True(t, hasBaseline)
	assert.Equal(t, "<p>saved baseline</p>", baseline)

	// Replaying again does not double up jobs.
	require.NoError(t, h.service.ReplayActiveURLs(ctx))
	assert.Equal(t, 2, h.service.registry.Len())
}

func TestTickerDrivenRetire(t *testing.T) {
	h := newHarness(t)
	h.service.interval = 10 * time.Millisecond

	u := h.store.addURL("http://example.com", true, "")
	h.store.addSubscriber(u.ID, "a@example.com", "", 30*time.Millisecond, time.Now().UTC())
	h.fetcher.push("<p>v1</p>", nil)

	h.service.startJob(u.ID, u.WebsiteURL, 0, "")
	job := h.service.registry.Get(u.ID)
	require.NotNil(t, job)

	select {
	case <-job.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("job did not retire after the subscriber window lapsed")
	}

	assert.Equal(t, 1, h.dispatcher.summaryCount())
	assert.False(t, h.store.urlByID(u.ID).IsActive)
	assert.Equal(t, 0, h.service.registry.Len(), "retired job must leave no registry handle")
}

func TestStopMonitoring(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.service.interval = 50 * time.Millisecond

	u := h.store.addURL("http://example.com", true, "")
	sub := h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())
	h.fetcher.push("<p>v1</p>", nil)

	h.service.startJob(u.ID, u.WebsiteURL, 0, "")
	require.NoError(t, h.service.StopMonitoring(ctx, u.ID))

	assert.Equal(t, 0, h.service.registry.Len())
	assert.False(t, h.store.urlByID(u.ID).IsActive)
	assert.Zero(t, h.dispatcher.summaryCount(), "manual stop sends no summary")

	// The stop covers the subscribers too, so restarting the URL later does
	// not revive alerts for this run.
	got, err := h.store.GetSubscriber(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestStatusMergesLiveJobState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.service.interval = time.Hour

	u := h.store.addURL("http://example.com", true, "")
	h.store.addSubscriber(u.ID, "a@example.com", "", time.Hour, time.Now().UTC())
	h.fetcher.push("<p>v1</p>", nil)

	h.service.startJob(u.ID, u.WebsiteURL, 3, "<p>v1</p>")

	statuses, err := h.service.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Monitoring)
	assert.Equal(t, 3, statuses[0].ChangesDetected)
}

func TestStatusReportsHistoryWithoutLiveJob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// A completed monitoring run: inactive URL, recorded changes, no job.
	u := h.store.addURL("http://example.com", false, "<p>final</p>")
	_, err := h.store.RecordChange(ctx, u.ID, "<p>a</p>", "<p>b</p>", time.Now().UTC())
	require.NoError(t, err)
	_, err = h.store.RecordChange(ctx, u.ID, "<p>b</p>", "<p>c</p>", time.Now().UTC())
	require.NoError(t, err)

	statuses, err := h.service.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Monitoring)
	assert.Equal(t, 2, statuses[0].ChangesDetected, "history must survive job retirement")
}
