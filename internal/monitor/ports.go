package monitor

import (
	"context"

	"github.com/lab007/webalert/internal/fetcher"
	"github.com/lab007/webalert/internal/models"
)

// ContentFetcher retrieves page content for the tick loop.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// NotificationDispatcher fans notifications out to subscribers. Deliveries
// are best-effort; the returned outcomes are complete before the call
// returns, so a tick never finishes with deliveries still in flight.
type NotificationDispatcher interface {
	DispatchChange(ctx context.Context, subs []models.Subscriber, event models.ChangeEvent) []models.DeliveryOutcome
	DispatchSummary(ctx context.Context, subs []models.Subscriber, event models.SummaryEvent) []models.DeliveryOutcome
	SendWelcome(ctx context.Context, sub models.Subscriber, event models.WelcomeEvent) []models.DeliveryOutcome
}
