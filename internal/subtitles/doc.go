// Package subtitles renders narration chunks into full-frame transparent PNG
// overlays.
//
// Two panel layouts exist: a full-width band anchored to the bottom edge, and
// a rounded box sized to the widest line and lifted a fixed offset above the
// bottom. Lines are wrapped by character count and centred independently.
// Output is a pure function of the text, style, and font.
package subtitles
