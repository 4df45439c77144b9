// Package api defines the wire-format types shared by the daemon's HTTP
// server and the CLI client.
//
// Payloads use snake_case JSON so clients written against the original
// generate-video endpoint keep working. Timestamps are RFC3339 with
// milliseconds.
//
// Job mirrors queue.Job for transport, RenderResponse carries a finished
// render, and Event is the progress message pushed over the job event
// stream. Client wraps the daemon endpoints for the CLI.
package api
