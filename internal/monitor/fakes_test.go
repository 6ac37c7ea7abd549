package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/fetcher"
	"github.com/lab007/webalert/internal/models"
)

// fakeStore is an in-memory SubscriptionStore for tick-loop tests.
type fakeStore struct {
	mu          sync.Mutex
	nextURLID   int64
	nextSubID   int64
	nextRecID   int64
	urls        map[int64]*models.MonitoredURL
	subscribers map[int64]*models.Subscriber
	records     []*models.ChangeRecord

	failEligible error
	failRecord   error
	failUpdate   error
}

var _ models.SubscriptionStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		urls:        make(map[int64]*models.MonitoredURL),
		subscribers: make(map[int64]*models.Subscriber),
	}
}

func (f *fakeStore) addURL(url string, active bool, lastContent string) *models.MonitoredURL {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextURLID++
	u := &models.MonitoredURL{
		ID:          f.nextURLID,
		WebsiteURL:  url,
		IsActive:    active,
		LastContent: lastContent,
		CreatedAt:   time.Now().UTC(),
	}
	f.urls[u.ID] = u
	return u
}

func (f *fakeStore) addSubscriber(urlID int64, email, phone string, duration time.Duration, createdAt time.Time) *models.Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSubID++
	sub := &models.Subscriber{
		ID:              f.nextSubID,
		URLID:           urlID,
		Email:           email,
		PhoneNumber:     phone,
		PollingDuration: duration,
		IsActive:        true,
		CreatedAt:       createdAt,
	}
	f.subscribers[sub.ID] = sub
	return sub
}

func (f *fakeStore) CreateOrReactivateURL(_ context.Context, url string) (*models.MonitoredURL, error) {
	f.mu.Lock()
	for _, u := range f.urls {
		if u.WebsiteURL == url {
			u.IsActive = true
			u.CheckCount = 0
			copied := *u
			f.mu.Unlock()
			return &copied, nil
		}
	}
	f.mu.Unlock()
	return f.addURL(url, true, ""), nil
}

func (f *fakeStore) CreateSubscriber(_ context.Context, urlID int64, sub models.NewSubscription) (*models.Subscriber, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	created := f.addSubscriber(urlID, sub.Email, sub.PhoneNumber, sub.PollingDuration, time.Now().UTC())
	created.Carrier = sub.Carrier
	return created, nil
}

func (f *fakeStore) GetSubscriber(_ context.Context, id int64) (*models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscribers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeStore) DeactivateSubscriber(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscribers[id]
	if !ok {
		return common.ErrNotFound
	}
	sub.IsActive = false
	return nil
}

func (f *fakeStore) DeactivateSubscribersForURL(_ context.Context, urlID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subscribers {
		if sub.URLID == urlID {
			sub.IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) GetEligibleSubscribers(_ context.Context, urlID int64, now time.Time) ([]models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEligible != nil {
		return nil, f.failEligible
	}
	var subs []models.Subscriber
	for _, sub := range f.subscribers {
		if sub.URLID == urlID && sub.WithinWindow(now) {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

func (f *fakeStore) GetAllSubscribers(_ context.Context, urlID int64) ([]models.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var subs []models.Subscriber
	for _, sub := range f.subscribers {
		if sub.URLID == urlID {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

func (f *fakeStore) RecordChange(_ context.Context, urlID int64, before, after string, detectedAt time.Time) (*models.ChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecord != nil {
		return nil, f.failRecord
	}
	f.nextRecID++
	record := &models.ChangeRecord{
		ID:            f.nextRecID,
		URLID:         urlID,
		DetectedAt:    detectedAt,
		ContentBefore: before,
		ContentAfter:  after,
	}
	f.records = append(f.records, record)
	copied := *record
	return &copied, nil
}

func (f *fakeStore) MarkDelivered(_ context.Context, recordID int64, channel models.DeliveryChannel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.ID == recordID {
			switch channel {
			case models.ChannelEmail:
				record.EmailSent = true
			case models.ChannelSMS:
				record.SMSSent = true
			}
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeStore) UpdateURLState(_ context.Context, urlID int64, update models.URLStateUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	u, ok := f.urls[urlID]
	if !ok {
		return common.ErrNotFound
	}
	if !update.LastCheck.IsZero() {
		u.LastCheck = update.LastCheck
	}
	if update.LastContent != nil {
		u.LastContent = *update.LastContent
	}
	if update.LastDebug != nil {
		u.LastDebug = *update.LastDebug
	}
	if update.ResetCount {
		u.CheckCount = 0
	} else if update.IncrementCount {
		u.CheckCount++
	}
	return nil
}

func (f *fakeStore) SetURLActive(_ context.Context, urlID int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.urls[urlID]
	if !ok {
		return common.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeStore) ListActiveURLs(_ context.Context) ([]models.MonitoredURL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var urls []models.MonitoredURL
	for _, u := range f.urls {
		if u.IsActive {
			urls = append(urls, *u)
		}
	}
	return urls, nil
}

func (f *fakeStore) CountChanges(_ context.Context, urlID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, record := range f.records {
		if record.URLID == urlID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) StatusSnapshot(ctx context.Context, now time.Time) ([]models.URLStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var statuses []models.URLStatus
	for _, u := range f.urls {
		changes := 0
		for _, record := range f.records {
			if record.URLID == u.ID {
				changes++
			}
		}
		statuses = append(statuses, models.URLStatus{
			URLID:           u.ID,
			URL:             u.WebsiteURL,
			IsActive:        u.IsActive,
			CheckCount:      u.CheckCount,
			ChangesDetected: changes,
			LastCheck:       u.LastCheck,
		})
	}
	return statuses, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) urlByID(id int64) models.MonitoredURL {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.urls[id]
}

func (f *fakeStore) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeFetcher serves a scripted sequence of fetch results; the last entry
// repeats once the script runs out.
type fakeFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	index     int
}

type fetchResponse struct {
	content string
	err     error
}

func (f *fakeFetcher) push(content string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fetchResponse{content, err})
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil, common.NewNetworkError(url, "no scripted response", nil)
	}
	idx := f.index
	if idx > len(f.responses)-1 {
		idx = len(f.responses) - 1
	}
	resp := f.responses[idx]
	f.index++
	if resp.err != nil {
		return nil, resp.err
	}
	return &fetcher.Result{
		Content: []byte(resp.content),
		Metadata: fetcher.Metadata{
			FetchID:       "test-fetch",
			FetchedAt:     time.Now().UTC(),
			StatusCode:    200,
			ContentLength: len(resp.content),
		},
	}, nil
}

// fakeDispatcher records every fan-out request.
type fakeDispatcher struct {
	mu        sync.Mutex
	changes   []dispatchedChange
	summaries []dispatchedSummary
	welcomes  []models.WelcomeEvent
}

type dispatchedChange struct {
	event  models.ChangeEvent
	subIDs []int64
}

type dispatchedSummary struct {
	event  models.SummaryEvent
	subIDs []int64
}

func subIDs(subs []models.Subscriber) []int64 {
	ids := make([]int64, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids
}

func (f *fakeDispatcher) DispatchChange(_ context.Context, subs []models.Subscriber, event models.ChangeEvent) []models.DeliveryOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, dispatchedChange{event, subIDs(subs)})
	return nil
}

func (f *fakeDispatcher) DispatchSummary(_ context.Context, subs []models.Subscriber, event models.SummaryEvent) []models.DeliveryOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, dispatchedSummary{event, subIDs(subs)})
	return nil
}

func (f *fakeDispatcher) SendWelcome(_ context.Context, _ models.Subscriber, event models.WelcomeEvent) []models.DeliveryOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, event)
	return nil
}

func (f *fakeDispatcher) changeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.changes)
}

func (f *fakeDispatcher) summaryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaries)
}
