package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lab007/webalert/internal/config"
	"github.com/lab007/webalert/internal/models"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Formatter renders notification subjects and bodies for both channels.
type Formatter struct {
	cfg *config.NotificationConfig
}

// NewFormatter creates a Formatter.
func NewFormatter(cfg *config.NotificationConfig) *Formatter {
	return &Formatter{cfg: cfg}
}

// ChangedWords extracts a bounded list of words that differ between the two
// content snapshots, using a semantic diff rather than the naive word-set
// comparison, so moved or repeated words don't flood the list.
func (f *Formatter) ChangedWords(before, after string) []string {
	if before == "" || after == "" {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	limit := f.cfg.MaxChangeWords
	if limit <= 0 {
		limit = 50
	}

	seen := make(map[string]struct{})
	var words []string
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		for _, word := range strings.Fields(d.Text) {
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
			if len(words) >= limit {
				return words
			}
		}
	}
	return words
}

// intervalMinutes renders a check interval in whole minutes, defaulting when
// the event does not carry one.
func intervalMinutes(interval time.Duration) int {
	if interval < time.Minute {
		return config.DefaultCheckIntervalSeconds / 60
	}
	return int(interval / time.Minute)
}

// stopLink builds the public stop-alerts URL for a subscriber, if a base URL
// is configured.
func (f *Formatter) stopLink(subscriberID int64) string {
	if f.cfg.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/stop/%d", strings.TrimRight(f.cfg.BaseURL, "/"), subscriberID)
}

// AlertEmail renders the subject, text body, and HTML body for a change alert.
func (f *Formatter) AlertEmail(sub models.Subscriber, event models.ChangeEvent) (subject, text, htmlBody string) {
	subject = f.cfg.AlertSubject
	if subject == "" {
		subject = config.DefaultAlertSubject
	}

	changes := f.ChangedWords(event.ContentBefore, event.ContentAfter)
	changesText := "Content has changed"
	if len(changes) > 0 {
		changesText = strings.Join(changes, ", ")
	}

	text = fmt.Sprintf("Page Change Detected\n\nURL: %s\n\nText changes detected:\n%s\n\nDate and time: %s\n",
		event.URL, changesText, event.DetectedAt.Format(time.RFC1123))

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<h1>Page Change Detected</h1>`)
	fmt.Fprintf(&b, `<p><strong>URL:</strong> <a href="%s">%s</a></p>`, html.EscapeString(event.URL), html.EscapeString(event.URL))
	fmt.Fprintf(&b, `<h3>Text changes detected</h3><p style="white-space: pre-wrap;">%s</p>`, html.EscapeString(changesText))
	fmt.Fprintf(&b, `<p style="color: #6c757d; font-size: 14px;">%s</p>`, event.DetectedAt.Format(time.RFC1123))
	f.writeFooter(&b, sub.ID)
	b.WriteString(`</div>`)
	return subject, text, b.String()
}

// WelcomeEmail renders the subscription confirmation.
func (f *Formatter) WelcomeEmail(sub models.Subscriber, event models.WelcomeEvent) (subject, text, htmlBody string) {
	subject = "Web Alerts Activated"
	minutes := int(event.PollingDuration / time.Minute)
	interval := intervalMinutes(event.CheckInterval)

	text = fmt.Sprintf("Web Alerts Activated\n\nURL: %s\nPoll Period: Every %d minutes\nDuration: %d minutes\n\nMonitoring has started successfully. You will receive notifications if any changes are detected.\n",
		event.URL, interval, minutes)

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<h2 style="color: #0066cc;">Web Alerts Activated</h2>`)
	fmt.Fprintf(&b, `<p><strong>URL:</strong> <a href="%s">%s</a></p>`, html.EscapeString(event.URL), html.EscapeString(event.URL))
	fmt.Fprintf(&b, `<p><strong>Poll Period:</strong> Every %d minutes</p>`, interval)
	fmt.Fprintf(&b, `<p><strong>Duration:</strong> %d minutes</p>`, minutes)
	fmt.Fprintf(&b, `<p>Monitoring will automatically stop after %d minutes.</p>`, minutes)
	f.writeFooter(&b, sub.ID)
	b.WriteString(`</div>`)
	return subject, text, b.String()
}

// SummaryEmail renders the end-of-monitoring report.
func (f *Formatter) SummaryEmail(sub models.Subscriber, event models.SummaryEvent) (subject, text, htmlBody string) {
	subject = "Web Alert: Monitoring Complete"

	summaryText := "No changes were detected during monitoring."
	if event.ChangesDetected > 0 {
		summaryText = fmt.Sprintf("We detected %d change(s) during monitoring.", event.ChangesDetected)
	}

	text = fmt.Sprintf("Monitoring completed for %s. %s Total checks: %d\n",
		event.URL, summaryText, event.ChecksDone)

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<h2>Monitoring Complete</h2>`)
	fmt.Fprintf(&b, `<p><strong>Website:</strong> <a href="%s">%s</a></p>`, html.EscapeString(event.URL), html.EscapeString(event.URL))
	fmt.Fprintf(&b, `<p><strong>Total Checks:</strong> %d</p>`, event.ChecksDone)
	fmt.Fprintf(&b, `<p><strong>Changes Detected:</strong> %d</p>`, event.ChangesDetected)
	fmt.Fprintf(&b, `<p><strong>End Time:</strong> %s</p>`, event.EndedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, `<p>%s</p>`, summaryText)
	b.WriteString(`<p>Thank you for using Web Alert!</p>`)
	f.writeFooter(&b, sub.ID)
	b.WriteString(`</div>`)
	return subject, text, b.String()
}

// AlertSMS renders the short change alert for the SMS gateway.
func (f *Formatter) AlertSMS(event models.ChangeEvent) (subject, body string) {
	return "Web Alert: Change Detected", fmt.Sprintf("Change detected on %s", event.URL)
}

// WelcomeSMS renders the short subscription confirmation.
func (f *Formatter) WelcomeSMS(event models.WelcomeEvent) (subject, body string) {
	minutes := int(event.PollingDuration / time.Minute)
	return "Web Alert: Welcome", fmt.Sprintf(
		"Welcome to Web Alert! We're now monitoring %s for %d minutes. Checks every %d min.",
		event.URL, minutes, intervalMinutes(event.CheckInterval))
}

// SummarySMS renders the short end-of-monitoring report.
func (f *Formatter) SummarySMS(event models.SummaryEvent) (subject, body string) {
	summaryText := "No changes were detected"
	if event.ChangesDetected > 0 {
		summaryText = fmt.Sprintf("We detected %d change(s)", event.ChangesDetected)
	}
	return "Web Alert: Monitoring Complete", fmt.Sprintf(
		"Monitoring Complete: %s. %s. Total checks: %d. Thank you for using Web Alert!",
		event.URL, summaryText, event.ChecksDone)
}

func (f *Formatter) writeFooter(b *strings.Builder, subscriberID int64) {
	stop := f.stopLink(subscriberID)
	if stop == "" {
		return
	}
	b.WriteString(`<div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #dee2e6;">`)
	fmt.Fprintf(b, `<p><a href="%s" style="color: #dc3545; font-weight: bold;">Stop Alerts</a></p>`, html.EscapeString(stop))
	b.WriteString(`</div>`)
}
