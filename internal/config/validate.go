// internal/config/validate.go
package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Plex.URL == "" {
		errs = append(errs, "plex.url: required")
	}
	if c.Plex.Token == "" {
		errs = append(errs, "plex.token: required")
	}

	if c.Radarr.URL == "" {
		errs = append(errs, "radarr.url: required")
	}
	if c.Radarr.APIKey == "" {
		errs = append(errs, "radarr.api_key: required")
	}

	if c.QBittorrent.URL == "" {
		errs = append(errs, "qbittorrent.url: required")
	}

	if c.Tracker.URL == "" {
		errs = append(errs, "tracker.url: required")
	}

	if c.Telegram.BotToken == "" {
		errs = append(errs, "telegram.bot_token: required")
	}
	if c.Telegram.ChatID == 0 {
		errs = append(errs, "telegram.chat_id: required")
	}

	if c.Scheduler.ScanFrequencyHours < 0 {
		errs = append(errs, "scheduler.scan_frequency_hours: must be non-negative")
	}
	if c.Policy.NotifyExpireHours <= 0 {
		errs = append(errs, "policy.notify_expire_hours: must be positive")
	}

	return errs
}
