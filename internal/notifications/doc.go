// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. The
// completion and error toggles in the notifications section gate individual
// event kinds without disabling the service outright.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the simple Service interface.
package notifications
