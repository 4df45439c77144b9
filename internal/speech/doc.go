// Package speech adapts the text-to-speech client to the pipeline: it writes
// each narration chunk to disk and measures the real playable duration with
// ffprobe. Durations are never estimated from the text.
package speech
