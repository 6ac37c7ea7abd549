package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/config"
	"github.com/lab007/webalert/internal/fetcher"
	"github.com/lab007/webalert/internal/models"
	"github.com/lab007/webalert/internal/normalizer"

	"github.com/rs/zerolog"
)

// Service is the monitoring engine: it owns the per-URL jobs, runs their
// tick loops, and coordinates the store, fetcher, and notification fan-out.
type Service struct {
	store      models.SubscriptionStore
	fetcher    ContentFetcher
	dispatcher NotificationDispatcher
	registry   *Registry
	interval   time.Duration
	welcome    bool
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates the monitoring service. Jobs it starts live until the
// service is shut down, a stop is requested, or the job retires itself.
func NewService(
	store models.SubscriptionStore,
	contentFetcher ContentFetcher,
	dispatcher NotificationDispatcher,
	registry *Registry,
	cfg *config.MonitorConfig,
	notifCfg *config.NotificationConfig,
	logger zerolog.Logger,
) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:      store,
		fetcher:    contentFetcher,
		dispatcher: dispatcher,
		registry:   registry,
		interval:   cfg.CheckInterval(),
		welcome:    notifCfg == nil || notifCfg.SendWelcome,
		logger:     logger.With().Str("component", "MonitorService").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// StartMonitoring registers a subscription on a URL and ensures a monitoring
// job is running for it. Starting is idempotent per URL: a second subscriber
// on an already monitored URL joins the existing job.
func (s *Service) StartMonitoring(ctx context.Context, rawURL string, sub models.NewSubscription) (int64, int64, error) {
	normalizedURL, err := normalizer.NormalizeURL(rawURL)
	if err != nil {
		return 0, 0, err
	}

	monitoredURL, err := s.store.CreateOrReactivateURL(ctx, normalizedURL)
	if err != nil {
		return 0, 0, common.WrapError(err, "failed to register URL")
	}

	subscriber, err := s.store.CreateSubscriber(ctx, monitoredURL.ID, sub)
	if err != nil {
		return 0, 0, common.WrapError(err, "failed to register subscriber")
	}

	if s.welcome {
		s.dispatcher.SendWelcome(ctx, *subscriber, models.WelcomeEvent{
			URLID:           monitoredURL.ID,
			URL:             normalizedURL,
			SubscriberID:    subscriber.ID,
			PollingDuration: subscriber.PollingDuration,
			CheckInterval:   s.interval,
		})
	}

	s.startJob(monitoredURL.ID, normalizedURL, 0, "")

	s.logger.Info().
		Int64("url_id", monitoredURL.ID).
		Int64("subscriber_id", subscriber.ID).
		Str("url", normalizedURL).
		Msg("Monitoring subscription started")
	return monitoredURL.ID, subscriber.ID, nil
}

// StopMonitoring cancels the job for a URL and deactivates it along with all
// of its subscribers, so a later restart of the URL does not revive alerts
// for a run that was explicitly stopped. No summary goes out on a manual stop.
func (s *Service) StopMonitoring(ctx context.Context, urlID int64) error {
	job := s.registry.Get(urlID)
	if job != nil {
		job.Stop()
		<-job.Done()
	}
	if err := s.store.DeactivateSubscribersForURL(ctx, urlID); err != nil {
		return err
	}
	if err := s.store.SetURLActive(ctx, urlID, false); err != nil {
		return err
	}
	s.logger.Info().Int64("url_id", urlID).Msg("Monitoring stopped")
	return nil
}

// StopSubscriber deactivates one subscriber. When that was the URL's last
// eligible subscriber, the job retires itself (with summaries) on its next
// tick.
func (s *Service) StopSubscriber(ctx context.Context, subscriberID int64) error {
	if _, err := s.store.GetSubscriber(ctx, subscriberID); err != nil {
		return err
	}
	if err := s.store.DeactivateSubscriber(ctx, subscriberID); err != nil {
		return err
	}
	s.logger.Info().Int64("subscriber_id", subscriberID).Msg("Subscriber stopped")
	return nil
}

// GetSubscriber returns one subscriber.
func (s *Service) GetSubscriber(ctx context.Context, subscriberID int64) (*models.Subscriber, error) {
	return s.store.GetSubscriber(ctx, subscriberID)
}

// Status returns the persisted dashboard rows merged with live job state.
func (s *Service) Status(ctx context.Context) ([]models.URLStatus, error) {
	statuses, err := s.store.StatusSnapshot(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if job := s.registry.Get(statuses[i].URLID); job != nil {
			statuses[i].Monitoring = true
			_, changes := job.Counters()
			statuses[i].ChangesDetected = changes
		}
	}
	return statuses, nil
}

// ReplayActiveURLs restarts monitoring jobs for every URL that was active
// when the process last stopped. Exactly one job per URL comes back; the
// change counter is rehydrated from the change history and the baseline from
// the last persisted content.
func (s *Service) ReplayActiveURLs(ctx context.Context) error {
	urls, err := s.store.ListActiveURLs(ctx)
	if err != nil {
		return common.WrapError(err, "failed to list active URLs for replay")
	}

	for _, u := range urls {
		changes, err := s.store.CountChanges(ctx, u.ID)
		if err != nil {
			s.logger.Error().Err(err).Int64("url_id", u.ID).Msg("Failed to rehydrate change count, starting at zero")
			changes = 0
		}
		s.startJob(u.ID, u.WebsiteURL, changes, u.LastContent)
	}

	s.logger.Info().Int("url_count", len(urls)).Msg("Replayed active URLs")
	return nil
}

// Shutdown cancels every job and waits for their tick loops to exit.
func (s *Service) Shutdown() {
	s.cancel()
	for _, job := range s.registry.Snapshot() {
		<-job.Done()
	}
	s.logger.Info().Msg("Monitoring service shut down")
}

// startJob spawns the tick loop for a URL unless one is already running.
func (s *Service) startJob(urlID int64, url string, seedChanges int, baseline string) {
	jobCtx, jobCancel := context.WithCancel(s.ctx)
	job := &Job{
		urlID:           urlID,
		url:             url,
		cancel:          jobCancel,
		done:            make(chan struct{}),
		changesDetected: seedChanges,
		startedAt:       time.Now().UTC(),
	}
	if baseline != "" {
		job.baseline = baseline
		job.hasBaseline = true
	}

	if !s.registry.Register(job) {
		jobCancel()
		s.logger.Debug().Int64("url_id", urlID).Msg("Job already running, not starting another")
		return
	}

	go s.runJob(jobCtx, job)
	s.logger.Info().Int64("url_id", urlID).Str("url", url).Dur("interval", s.interval).Msg("Monitoring job started")
}

// runJob drives one job's ticks. The loop is the only writer of the job's
// check state, so ticks for one URL never overlap. Registry removal is
// deferred so a crashed or retired job never leaves a stale handle behind.
func (s *Service) runJob(ctx context.Context, job *Job) {
	defer close(job.done)
	defer s.registry.Unregister(job.urlID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Establish the baseline right away rather than waiting a full interval.
	if !s.tick(ctx, job) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Int64("url_id", job.urlID).Msg("Job cancelled")
			return
		case <-ticker.C:
			if !s.tick(ctx, job) {
				return
			}
		}
	}
}

// tick runs one monitoring cycle. It returns false when the job should stop.
func (s *Service) tick(ctx context.Context, job *Job) bool {
	if ctx.Err() != nil {
		return false
	}
	now := time.Now().UTC()

	eligible, err := s.store.GetEligibleSubscribers(ctx, job.urlID, now)
	if err != nil {
		s.logger.Error().Err(err).Int64("url_id", job.urlID).Msg("Eligibility check failed, skipping tick")
		return true
	}

	if len(eligible) == 0 {
		s.retire(ctx, job, now)
		return false
	}

	result, err := s.fetcher.Fetch(ctx, job.url)
	if err != nil {
		s.logger.Warn().Err(err).Int64("url_id", job.urlID).Str("url", job.url).Msg("Fetch failed, skipping comparison")
		// last_check only moves on a successful check, so a monitor whose
		// fetches keep failing shows up as stale in the status view.
		debug := errorDebug(err, now)
		if updateErr := s.store.UpdateURLState(ctx, job.urlID, models.URLStateUpdate{
			LastDebug: &debug,
		}); updateErr != nil {
			s.logger.Error().Err(updateErr).Int64("url_id", job.urlID).Msg("Failed to persist failed-fetch state")
		}
		return true
	}

	content := string(result.Content)
	debug := fetchDebug(result.Metadata)

	baseline, hasBaseline := job.snapshotBaseline()
	if !hasBaseline {
		// First successful fetch establishes the baseline; it is not a
		// counted check and can never be a change.
		job.setBaseline(content)
		if err := s.store.UpdateURLState(ctx, job.urlID, models.URLStateUpdate{
			LastCheck:   now,
			LastContent: &content,
			LastDebug:   &debug,
			ResetCount:  true,
		}); err != nil {
			s.logger.Error().Err(err).Int64("url_id", job.urlID).Msg("Failed to persist baseline")
		}
		s.logger.Info().Int64("url_id", job.urlID).Int("size", len(content)).Msg("Baseline established")
		return true
	}

	changed := normalizer.NormalizeContent(baseline) != normalizer.NormalizeContent(content)
	job.recordCheck(changed)

	// The persisted content advances even without a detected change, so a
	// restart re-baselines from the latest raw snapshot.
	update := models.URLStateUpdate{
		LastCheck:      now,
		LastContent:    &content,
		LastDebug:      &debug,
		IncrementCount: true,
	}
	if err := s.store.UpdateURLState(ctx, job.urlID, update); err != nil {
		// The in-memory baseline still advances below: repeating the same
		// alert every tick would be worse than a stale persisted snapshot.
		s.logger.Error().Err(err).Int64("url_id", job.urlID).Msg("Failed to persist check state")
	}

	if !changed {
		s.logger.Debug().Int64("url_id", job.urlID).Msg("No change detected after filtering")
		return true
	}

	s.logger.Info().Int64("url_id", job.urlID).Str("url", job.url).Msg("Change detected")

	record, err := s.store.RecordChange(ctx, job.urlID, baseline, content, now)
	if err != nil {
		// Without a change record there is nothing to mark deliveries
		// against, so no notifications go out for this change.
		s.logger.Error().Err(err).Int64("url_id", job.urlID).Msg("Failed to record change, skipping notification")
	} else {
		checksDone, _ := job.Counters()
		s.dispatcher.DispatchChange(ctx, eligible, models.ChangeEvent{
			URLID:         job.urlID,
			URL:           job.url,
			RecordID:      record.ID,
			DetectedAt:    now,
			ContentBefore: baseline,
			ContentAfter:  content,
			CheckNumber:   checksDone,
		})
	}

	job.setBaseline(content)
	return true
}

// retire ends monitoring for a URL whose last eligible subscriber has lapsed:
// summaries go to every subscriber ever, and the URL is deactivated.
func (s *Service) retire(ctx context.Context, job *Job, now time.Time) {
	checksDone, changesDetected := job.Counters()
	s.logger.Info().
		Int64("url_id", job.urlID).
		Int("checks_done", checksDone).
		Int("changes_detected", changesDetected).
		Msg("No eligible subscribers remain, retiring job")

	allSubs, err := s.store.GetAllSubscribers(ctx, job.urlID)
	if err != nil {
		s.logger.Error().Err(err).Int64("url_id", job.urlID).Msg("Failed to load subscribers for summary")
	} else {
		s.dispatcher.DispatchSummary(ctx, allSubs, models.SummaryEvent{
			URLID:           job.urlID,
			URL:             job.url,
			StartedAt:       job.startedAt,
			EndedAt:         now,
			ChecksDone:      checksDone,
			ChangesDetected: changesDetected,
		})
	}

	if err := s.store.SetURLActive(ctx, job.urlID, false); err != nil {
		s.logger.Error().Err(err).Int64("url_id", job.urlID).Msg("Failed to deactivate URL on retirement")
	}
}

type debugInfo struct {
	FetchID       string    `json:"fetch_id,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
	StatusCode    int       `json:"status_code,omitempty"`
	ContentLength int       `json:"content_length,omitempty"`
	DurationMS    int64     `json:"duration_ms,omitempty"`
	Title         string    `json:"title,omitempty"`
	Error         string    `json:"error,omitempty"`
}

func fetchDebug(md fetcher.Metadata) string {
	data, err := json.Marshal(debugInfo{
		FetchID:       md.FetchID,
		FetchedAt:     md.FetchedAt,
		StatusCode:    md.StatusCode,
		ContentLength: md.ContentLength,
		DurationMS:    md.Duration.Milliseconds(),
		Title:         md.Title,
	})
	if err != nil {
		return ""
	}
	return string(data)
}

func errorDebug(fetchErr error, at time.Time) string {
	data, err := json.Marshal(debugInfo{FetchedAt: at, Error: fetchErr.Error()})
	if err != nil {
		return ""
	}
	return string(data)
}
