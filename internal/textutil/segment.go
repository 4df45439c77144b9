package textutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultWordsPerChunk is the window size used when a words policy does not set one.
const DefaultWordsPerChunk = 10

// Segmenter splits narration text into ordered chunks. Implementations are
// pure: the same input always yields the same chunks, and joining the chunks
// with single spaces reproduces the input modulo whitespace.
type Segmenter interface {
	Segment(text string) []string
}

// WordChunker groups whitespace-separated words into windows of Size words.
// The final window may be shorter.
type WordChunker struct {
	Size int
}

// Segment implements Segmenter.
func (w WordChunker) Segment(text string) []string {
	size := w.Size
	if size <= 0 {
		size = DefaultWordsPerChunk
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// SentenceChunker splits after sentence-terminal punctuation that is followed
// by whitespace. The punctuation stays with its sentence. Devanagari danda and
// double danda count as terminators.
type SentenceChunker struct{}

// Segment implements Segmenter.
func (SentenceChunker) Segment(text string) []string {
	var (
		chunks []string
		start  int
		prev   rune
	)
	flush := func(end int) {
		if sentence := normalizeSpace(text[start:end]); sentence != "" {
			chunks = append(chunks, sentence)
		}
	}
	for i, r := range text {
		if unicode.IsSpace(r) && isSentenceTerminal(prev) {
			flush(i)
			start = i + utf8.RuneLen(r)
		}
		prev = r
	}
	flush(len(text))
	return chunks
}

func isSentenceTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '।', '॥':
		return true
	default:
		return false
	}
}

// normalizeSpace trims and collapses internal whitespace runs to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewSegmenter returns the segmenter for a chunking policy name ("words" or
// "sentences"). size is only consulted by the words policy.
func NewSegmenter(policy string, size int) (Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "words":
		if size <= 0 {
			size = DefaultWordsPerChunk
		}
		return WordChunker{Size: size}, nil
	case "sentences":
		return SentenceChunker{}, nil
	default:
		return nil, fmt.Errorf("unknown chunking policy %q", policy)
	}
}
