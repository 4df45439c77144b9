package textutil_test

import (
	"reflect"
	"testing"
	"unicode/utf8"

	"reelforge/internal/textutil"
)

func TestWrapGreedy(t *testing.T) {
	got := textutil.Wrap("the quick brown fox jumps over the lazy dog", 10)
	want := []string{"the quick", "brown fox", "jumps over", "the lazy", "dog"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWrapBreaksLongWords(t *testing.T) {
	got := textutil.Wrap("ab abcdefghij k", 4)
	want := []string{"ab", "abcd", "efgh", "ij k"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWrapCountsRunes(t *testing.T) {
	lines := textutil.Wrap("नमस्ते दुनिया आप कैसे हैं", 12)
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > 12 {
			t.Fatalf("line %q has %d runes", line, n)
		}
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", lines)
	}
}

func TestWrapEmpty(t *testing.T) {
	if lines := textutil.Wrap("  \n ", 10); lines != nil {
		t.Fatalf("expected nil, got %q", lines)
	}
}
