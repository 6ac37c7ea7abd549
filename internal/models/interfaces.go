package models

import (
	"context"
	"time"
)

// SubscriptionStore is the persistence boundary of the monitoring engine:
// URLs, subscribers, and change history.
type SubscriptionStore interface {
	// CreateOrReactivateURL upserts the URL row for a normalized URL and
	// marks it active. An inactive row is reactivated with its check
	// counter reset.
	CreateOrReactivateURL(ctx context.Context, url string) (*MonitoredURL, error)

	// CreateSubscriber registers a subscriber on a URL.
	CreateSubscriber(ctx context.Context, urlID int64, sub NewSubscription) (*Subscriber, error)

	// GetSubscriber returns a subscriber by ID, or common.ErrNotFound.
	GetSubscriber(ctx context.Context, id int64) (*Subscriber, error)

	// DeactivateSubscriber marks a subscriber inactive (stop action).
	DeactivateSubscriber(ctx context.Context, id int64) error

	// DeactivateSubscribersForURL marks every subscriber of a URL inactive.
	// Used when monitoring of the URL is stopped explicitly.
	DeactivateSubscribersForURL(ctx context.Context, urlID int64) error

	// GetEligibleSubscribers returns the subscribers of a URL that are
	// active and inside their alert window at the given instant.
	GetEligibleSubscribers(ctx context.Context, urlID int64, now time.Time) ([]Subscriber, error)

	// GetAllSubscribers returns every subscriber ever registered on a URL,
	// active or not. Used for retirement summaries.
	GetAllSubscribers(ctx context.Context, urlID int64) ([]Subscriber, error)

	// RecordChange persists one detected change with its before and after
	// content.
	RecordChange(ctx context.Context, urlID int64, before, after string, detectedAt time.Time) (*ChangeRecord, error)

	// MarkDelivered flips the sent flag of a change record for a channel.
	MarkDelivered(ctx context.Context, recordID int64, channel DeliveryChannel) error

	// UpdateURLState applies a partial update to a URL's check state.
	UpdateURLState(ctx context.Context, urlID int64, update URLStateUpdate) error

	// SetURLActive toggles a URL's active flag.
	SetURLActive(ctx context.Context, urlID int64, active bool) error

	// ListActiveURLs returns all active URLs, for restart replay.
	ListActiveURLs(ctx context.Context) ([]MonitoredURL, error)

	// CountChanges returns the number of recorded changes for a URL.
	CountChanges(ctx context.Context, urlID int64) (int, error)

	// StatusSnapshot returns dashboard rows for all URLs with their active
	// subscribers and remaining window minutes.
	StatusSnapshot(ctx context.Context, now time.Time) ([]URLStatus, error)

	// Close releases the underlying database handle.
	Close() error
}
