// Package ffmpeg runs the ffmpeg and ffprobe binaries behind an injectable
// Executor. Every call is bounded by the configured timeout and the caller's
// context; failures surface as *CommandError carrying the argument list, the
// exit status, and the tail of stderr.
package ffmpeg
