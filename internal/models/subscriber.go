package models

import (
	"strings"
	"time"

	"github.com/lab007/webalert/internal/common"
)

// Subscriber represents one person watching one URL for a bounded window of
// time. A subscriber is eligible for change alerts while active and inside
// [CreatedAt, CreatedAt+PollingDuration).
type Subscriber struct {
	ID              int64         `json:"id"`
	URLID           int64         `json:"url_id"`
	Email           string        `json:"email"`
	PhoneNumber     string        `json:"phone_number,omitempty"`
	Carrier         string        `json:"carrier,omitempty"`
	PollingDuration time.Duration `json:"polling_duration"`
	IsActive        bool          `json:"is_active"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ExpiresAt returns the end of the subscriber's alert window.
func (s Subscriber) ExpiresAt() time.Time {
	return s.CreatedAt.Add(s.PollingDuration)
}

// WithinWindow reports whether the subscriber is eligible for alerts at the
// given instant. The window is half-open: a subscriber whose window ends
// exactly now is no longer eligible.
func (s Subscriber) WithinWindow(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return !now.Before(s.CreatedAt) && now.Before(s.ExpiresAt())
}

// HasPhone reports whether the subscriber opted into SMS delivery.
func (s Subscriber) HasPhone() bool {
	return strings.TrimSpace(s.PhoneNumber) != ""
}

// NewSubscription is the input for registering a subscriber on a URL.
type NewSubscription struct {
	Email           string        `json:"email"`
	PhoneNumber     string        `json:"phone_number,omitempty"`
	Carrier         string        `json:"carrier,omitempty"`
	PollingDuration time.Duration `json:"polling_duration"`
}

// Validate checks the subscription input. Email is required, phone is
// optional, and the alert window must be positive.
func (ns NewSubscription) Validate() error {
	if strings.TrimSpace(ns.Email) == "" {
		return common.NewValidationError("email", ns.Email, "email is required")
	}
	if !strings.Contains(ns.Email, "@") {
		return common.NewValidationError("email", ns.Email, "email is not a valid address")
	}
	if ns.PollingDuration <= 0 {
		return common.NewValidationError("polling_duration", ns.PollingDuration, "polling duration must be positive")
	}
	return nil
}
