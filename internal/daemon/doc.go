// Package daemon runs the long-lived reelforge HTTP service.
//
// It wires configuration, the job store, and the render pipeline into a single
// lifecycle with flock-based locking to prevent multiple instances. Each POST
// renders synchronously on the handler goroutine; an optional semaphore caps
// how many renders run at once. Progress is recorded in the job store and
// pushed to websocket subscribers. A janitor goroutine reclaims stale work
// directories and old log files.
//
// Keep orchestration here: rendering belongs to the pipeline package while the
// daemon focuses on admission, bookkeeping, and shutdown.
package daemon
