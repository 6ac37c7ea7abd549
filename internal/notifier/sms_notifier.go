package notifier

import (
	"context"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/config"
	"github.com/lab007/webalert/internal/models"

	"github.com/rs/zerolog"
)

// SMSNotifier delivers short notifications to a subscriber's phone via the
// carrier's email-to-SMS gateway, reusing the SMTP sender.
type SMSNotifier struct {
	sender    EmailSender
	formatter *Formatter
	cfg       *config.NotificationConfig
	logger    zerolog.Logger
}

// NewSMSNotifier creates an SMSNotifier.
func NewSMSNotifier(sender EmailSender, cfg *config.NotificationConfig, logger zerolog.Logger) *SMSNotifier {
	return &SMSNotifier{
		sender:    sender,
		formatter: NewFormatter(cfg),
		cfg:       cfg,
		logger:    logger.With().Str("component", "SMSNotifier").Logger(),
	}
}

// Channel implements the Channel interface.
func (n *SMSNotifier) Channel() models.DeliveryChannel {
	return models.ChannelSMS
}

// gatewayFor resolves the subscriber's gateway address, falling back to the
// configured default carrier when the subscriber did not name one.
func (n *SMSNotifier) gatewayFor(sub models.Subscriber) (string, error) {
	if !sub.HasPhone() {
		return "", common.NewValidationError("phone_number", sub.PhoneNumber, "subscriber has no phone number")
	}
	carrier := sub.Carrier
	if carrier == "" {
		carrier = n.cfg.DefaultCarrier
	}
	return ResolveGatewayAddress(sub.PhoneNumber, carrier, n.cfg.PreferMMS)
}

// SendChangeAlert implements Notifier.
func (n *SMSNotifier) SendChangeAlert(ctx context.Context, sub models.Subscriber, event models.ChangeEvent) error {
	to, err := n.gatewayFor(sub)
	if err != nil {
		return err
	}
	subject, body := n.formatter.AlertSMS(event)
	n.logger.Info().Str("to", to).Str("url", event.URL).Msg("Sending change alert SMS via gateway")
	return n.sender.Send(ctx, to, subject, body, "")
}

// SendSummary implements Notifier.
func (n *SMSNotifier) SendSummary(ctx context.Context, sub models.Subscriber, event models.SummaryEvent) error {
	to, err := n.gatewayFor(sub)
	if err != nil {
		return err
	}
	subject, body := n.formatter.SummarySMS(event)
	n.logger.Info().Str("to", to).Str("url", event.URL).Msg("Sending summary SMS via gateway")
	return n.sender.Send(ctx, to, subject, body, "")
}

// SendWelcome implements Notifier.
func (n *SMSNotifier) SendWelcome(ctx context.Context, sub models.Subscriber, event models.WelcomeEvent) error {
	to, err := n.gatewayFor(sub)
	if err != nil {
		return err
	}
	subject, body := n.formatter.WelcomeSMS(event)
	n.logger.Info().Str("to", to).Str("url", event.URL).Msg("Sending welcome SMS via gateway")
	return n.sender.Send(ctx, to, subject, body, "")
}
