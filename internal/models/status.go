package models

import "time"

// SubscriberStatus is a dashboard row for one subscriber of a URL.
type SubscriberStatus struct {
	SubscriberID int64  `json:"subscriber_id"`
	Email        string `json:"email"`
	MinutesLeft  int    `json:"minutes_left"`
}

// URLStatus is a dashboard row for one monitored URL with its active
// subscribers. Monitoring and ChangesDetected reflect the live job when one
// is running; the rest comes from the store.
type URLStatus struct {
	URLID           int64              `json:"url_id"`
	URL             string             `json:"url"`
	IsActive        bool               `json:"is_active"`
	Monitoring      bool               `json:"monitoring"`
	CheckCount      int                `json:"check_count"`
	ChangesDetected int                `json:"changes_detected"`
	LastCheck       time.Time          `json:"last_check,omitempty"`
	Subscribers     []SubscriberStatus `json:"subscribers"`
}
