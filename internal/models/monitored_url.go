package models

import "time"

// MonitoredURL represents a URL row in the subscription store. One row exists
// per normalized URL; the monitoring engine keys its jobs by ID.
type MonitoredURL struct {
	ID          int64     `json:"id"`
	WebsiteURL  string    `json:"website_url"`
	LastCheck   time.Time `json:"last_check,omitempty"`
	LastContent string    `json:"-"`
	LastDebug   string    `json:"last_debug,omitempty"`
	CheckCount  int       `json:"check_count"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// URLStateUpdate describes a partial update of a monitored URL's check state.
// Nil pointer fields are left untouched.
type URLStateUpdate struct {
	LastCheck      time.Time
	LastContent    *string
	LastDebug      *string
	IncrementCount bool
	ResetCount     bool
}
