// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect runs ffprobe directly; callers that route subprocesses through an
// injectable executor use Args and Parse instead. PlayableDuration is the
// value the render pipeline trusts for narration timing.
package ffprobe
