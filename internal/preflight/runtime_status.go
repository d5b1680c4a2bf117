package preflight

import (
	"net/url"
	"strings"

	"quill/internal/config"
)

// CheckNotificationsFromConfig evaluates notification readiness from config.
// An unset topic is a passing state because notifications are optional.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{Name: name, Detail: "ntfy topic must be an http(s) URL"}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

// CheckHistoryFromConfig evaluates history store readiness from config.
func CheckHistoryFromConfig(cfg *config.Config) Result {
	const name = "History"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.History.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: cfg.HistoryDBPath()}
}
