package notifier

import (
	"context"

	"github.com/lab007/webalert/internal/models"
)

// Notifier delivers monitoring notifications to a single subscriber over one
// channel. Implementations are best-effort: a returned error means this
// delivery failed, nothing more.
type Notifier interface {
	// SendChangeAlert announces one detected change.
	SendChangeAlert(ctx context.Context, sub models.Subscriber, event models.ChangeEvent) error

	// SendSummary delivers the final report when monitoring of a URL ends.
	SendSummary(ctx context.Context, sub models.Subscriber, event models.SummaryEvent) error

	// SendWelcome confirms a newly created subscription.
	SendWelcome(ctx context.Context, sub models.Subscriber, event models.WelcomeEvent) error
}

// Channel reports which delivery channel a notifier serves.
type Channel interface {
	Channel() models.DeliveryChannel
}
