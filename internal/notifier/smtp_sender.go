package notifier

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/config"

	"github.com/rs/zerolog"
)

// EmailSender sends a single email. Both the email notifier and the
// email-to-SMS gateway go through this boundary, which also lets tests swap
// in a fake.
type EmailSender interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// SMTPSender sends mail over SMTP with STARTTLS (the upgrade is negotiated
// by net/smtp when the server advertises it).
type SMTPSender struct {
	cfg    *config.NotificationConfig
	logger zerolog.Logger
}

// NewSMTPSender creates an SMTPSender. It fails when SMTP is not configured,
// so a misconfigured deployment surfaces at startup rather than at the first
// delivery.
func NewSMTPSender(cfg *config.NotificationConfig, logger zerolog.Logger) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, common.NewConfigurationError("notification", "smtp", "SMTP host, user, and password are required")
	}
	return &SMTPSender{
		cfg:    cfg,
		logger: logger.With().Str("component", "SMTPSender").Logger(),
	}, nil
}

// Send delivers one message. When htmlBody is non-empty the message goes out
// as multipart/alternative with the text part first.
func (s *SMTPSender) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(to, subject, textBody, htmlBody)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{to}, msg); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("Failed to send email")
		return common.NewNetworkError(addr, "SMTP send failed", err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

func (s *SMTPSender) buildMessage(to, subject, textBody, htmlBody string) []byte {
	fromName := s.cfg.FromName
	if fromName == "" {
		fromName = config.DefaultFromName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), s.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(textBody)
		return []byte(b.String())
	}

	const boundary = "webalert-boundary"
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, textBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
