// Package compose turns one piece of footage plus its narration into an
// encoded segment.
//
// BuildPlan is pure: it assigns named input slots and builds a typed filter
// graph that is rendered to text once. Compositor hands the resulting
// arguments to an ffmpeg runner. All segments share one codec profile so the
// timeline can be joined without re-encoding.
package compose
