package config

import "os"

// NotificationConfig defines configuration for email and SMS delivery.
// SMS goes out through email-to-SMS carrier gateways, so both channels
// share the SMTP settings.
type NotificationConfig struct {
	SMTPHost     string `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	SMTPUser     string `json:"smtp_user,omitempty" yaml:"smtp_user,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	FromAddress  string `json:"from_address,omitempty" yaml:"from_address,omitempty" validate:"omitempty,email"`
	FromName     string `json:"from_name,omitempty" yaml:"from_name,omitempty"`

	AlertSubject   string `json:"alert_subject,omitempty" yaml:"alert_subject,omitempty"`
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"` // Public base URL used for stop-alert links
	DefaultCarrier string `json:"default_carrier,omitempty" yaml:"default_carrier,omitempty"`
	PreferMMS      bool   `json:"prefer_mms" yaml:"prefer_mms"`
	SendWelcome    bool   `json:"send_welcome" yaml:"send_welcome"`

	MaxChangeWords int `json:"max_change_words,omitempty" yaml:"max_change_words,omitempty" validate:"omitempty,min=1"` // Cap on changed words listed in alert bodies
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SMTPHost:       "smtp.gmail.com",
		SMTPPort:       DefaultSMTPPort,
		AlertSubject:   DefaultAlertSubject,
		FromName:       DefaultFromName,
		PreferMMS:      true,
		SendWelcome:    true,
		MaxChangeWords: 50,
	}
}

// applyEnvOverrides pulls SMTP credentials from the environment so they can
// stay out of config files checked into version control.
func (c *NotificationConfig) applyEnvOverrides() {
	if v := os.Getenv("WEBALERT_SMTP_USER"); v != "" {
		c.SMTPUser = v
	}
	if v := os.Getenv("WEBALERT_SMTP_PASS"); v != "" {
		c.SMTPPassword = v
	}
	if c.FromAddress == "" {
		c.FromAddress = c.SMTPUser
	}
}

// Enabled reports whether SMTP delivery is configured at all.
func (c NotificationConfig) Enabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}
