package models

import "time"

// DeliveryChannel identifies a notification delivery channel.
type DeliveryChannel string

const (
	ChannelEmail DeliveryChannel = "email"
	ChannelSMS   DeliveryChannel = "sms"
)

// DeliveryOutcome records the result of one delivery attempt for one
// subscriber on one channel.
type DeliveryOutcome struct {
	SubscriberID int64
	Channel      DeliveryChannel
	Err          error
}

// Success reports whether the delivery attempt succeeded.
func (o DeliveryOutcome) Success() bool {
	return o.Err == nil
}

// ChangeEvent carries everything a notifier needs to announce one detected
// change on a URL.
type ChangeEvent struct {
	URLID         int64
	URL           string
	RecordID      int64
	DetectedAt    time.Time
	ContentBefore string
	ContentAfter  string
	CheckNumber   int
}

// SummaryEvent carries the final report sent when a URL's monitoring retires.
type SummaryEvent struct {
	URLID           int64
	URL             string
	StartedAt       time.Time
	EndedAt         time.Time
	ChecksDone      int
	ChangesDetected int
}

// WelcomeEvent carries the confirmation sent when a subscription is created.
type WelcomeEvent struct {
	URLID           int64
	URL             string
	SubscriberID    int64
	PollingDuration time.Duration
	CheckInterval   time.Duration
}
