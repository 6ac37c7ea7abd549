package models

import "time"

// ChangeRecord is the persisted evidence of one detected content change.
// Exactly one record is written per detected change; the sent flags track
// whether at least one delivery succeeded on each channel.
type ChangeRecord struct {
	ID            int64     `json:"id"`
	URLID         int64     `json:"monitored_url_id"`
	DetectedAt    time.Time `json:"detected_at"`
	ContentBefore string    `json:"-"`
	ContentAfter  string    `json:"-"`
	EmailSent     bool      `json:"email_sent"`
	SMSSent       bool      `json:"sms_sent"`
}
