package textutil_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"reelforge/internal/textutil"
)

func TestWordChunkerWindows(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	chunks := textutil.WordChunker{Size: 10}.Segment(strings.Join(words, " "))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []int{10, 10, 5} {
		if got := len(strings.Fields(chunks[i])); got != want {
			t.Fatalf("chunk %d: %d words, want %d", i, got, want)
		}
	}
}

func TestSentenceChunkerKeepsPunctuation(t *testing.T) {
	got := textutil.SentenceChunker{}.Segment("Hello there. How are you? I am fine!")
	want := []string{"Hello there.", "How are you?", "I am fine!"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSentenceChunkerDevanagari(t *testing.T) {
	got := textutil.SentenceChunker{}.Segment("नमस्ते दुनिया। आप कैसे हैं? ठीक हूँ")
	want := []string{"नमस्ते दुनिया।", "आप कैसे हैं?", "ठीक हूँ"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSentenceChunkerIgnoresInnerPunctuation(t *testing.T) {
	got := textutil.SentenceChunker{}.Segment("Version 2.5 shipped.  Next\tone soon.\n")
	want := []string{"Version 2.5 shipped.", "Next one soon."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSegmentersReconstructText(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"single",
		"one two three four five six seven eight nine ten eleven",
		"First sentence.   Second one!\nThird?  trailing words without stop",
		"a. b. c. d.",
	}
	segmenters := map[string]textutil.Segmenter{
		"words3":    textutil.WordChunker{Size: 3},
		"words10":   textutil.WordChunker{Size: 10},
		"sentences": textutil.SentenceChunker{},
	}
	for name, seg := range segmenters {
		for _, input := range inputs {
			chunks := seg.Segment(input)
			for _, chunk := range chunks {
				if strings.TrimSpace(chunk) == "" {
					t.Fatalf("%s: empty chunk for %q", name, input)
				}
			}
			joined := strings.Join(chunks, " ")
			if strings.Join(strings.Fields(joined), " ") != strings.Join(strings.Fields(input), " ") {
				t.Fatalf("%s: %q does not reconstruct %q", name, joined, input)
			}
		}
	}
}

func TestNewSegmenter(t *testing.T) {
	seg, err := textutil.NewSegmenter("words", 0)
	if err != nil {
		t.Fatalf("NewSegmenter(words): %v", err)
	}
	if wc, ok := seg.(textutil.WordChunker); !ok || wc.Size != textutil.DefaultWordsPerChunk {
		t.Fatalf("unexpected segmenter %#v", seg)
	}
	if _, err := textutil.NewSegmenter("Sentences", 0); err != nil {
		t.Fatalf("NewSegmenter(Sentences): %v", err)
	}
	if _, err := textutil.NewSegmenter("paragraphs", 0); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
