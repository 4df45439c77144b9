// Package notifications pushes render outcomes to ntfy.
//
// The daemon reports every finished job through the Service interface. When
// no topic is configured the service is a no-op, so callers never need to
// check whether notifications are enabled.
package notifications
