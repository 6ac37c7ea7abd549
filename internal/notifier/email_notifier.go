package notifier

import (
	"context"

	"github.com/lab007/webalert/internal/config"
	"github.com/lab007/webalert/internal/models"

	"github.com/rs/zerolog"
)

// EmailNotifier delivers notifications to a subscriber's email address.
type EmailNotifier struct {
	sender    EmailSender
	formatter *Formatter
	logger    zerolog.Logger
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(sender EmailSender, cfg *config.NotificationConfig, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:    sender,
		formatter: NewFormatter(cfg),
		logger:    logger.With().Str("component", "EmailNotifier").Logger(),
	}
}

// Channel implements the Channel interface.
func (n *EmailNotifier) Channel() models.DeliveryChannel {
	return models.ChannelEmail
}

// SendChangeAlert implements Notifier.
func (n *EmailNotifier) SendChangeAlert(ctx context.Context, sub models.Subscriber, event models.ChangeEvent) error {
	subject, text, htmlBody := n.formatter.AlertEmail(sub, event)
	n.logger.Info().
		Str("to", sub.Email).
		Str("url", event.URL).
		Int64("record_id", event.RecordID).
		Msg("Sending change alert email")
	return n.sender.Send(ctx, sub.Email, subject, text, htmlBody)
}

// SendSummary implements Notifier.
func (n *EmailNotifier) SendSummary(ctx context.Context, sub models.Subscriber, event models.SummaryEvent) error {
	subject, text, htmlBody := n.formatter.SummaryEmail(sub, event)
	n.logger.Info().Str("to", sub.Email).Str("url", event.URL).Msg("Sending summary email")
	return n.sender.Send(ctx, sub.Email, subject, text, htmlBody)
}

// SendWelcome implements Notifier.
func (n *EmailNotifier) SendWelcome(ctx context.Context, sub models.Subscriber, event models.WelcomeEvent) error {
	subject, text, htmlBody := n.formatter.WelcomeEmail(sub, event)
	n.logger.Info().Str("to", sub.Email).Str("url", event.URL).Msg("Sending welcome email")
	return n.sender.Send(ctx, sub.Email, subject, text, htmlBody)
}
