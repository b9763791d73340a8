// Package notifications delivers job outcome alerts via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Completion and failure alerts can be toggled independently so a
// long watch session only reports what the user cares about.
//
// Extend this package if you need alternative transports; callers depend
// only on the simple Service interface.
package notifications
