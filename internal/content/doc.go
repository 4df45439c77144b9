// Package content defines the render request model: an ordered list of
// footage items with narration text, plus language, voice, and optional
// branding layers.
//
// Requests arrive as JSON over HTTP or as YAML/JSON documents in batch mode.
// Both paths accept the legacy field names (language_name, source_url,
// narration_text). Validate reports every problem at once under
// services.ErrValidation.
package content
