// Package textutil provides the text processing used before narration:
// splitting text into chunks, wrapping subtitle lines, and flattening
// Markdown into speakable text.
//
// Segmenters are pure and deterministic. The words policy groups a fixed
// number of whitespace-separated words; the sentences policy splits after
// terminal punctuation (including the Devanagari danda) that is followed by
// whitespace.
package textutil
