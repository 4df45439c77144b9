package textutil

import "strings"

// Wrap breaks text into lines of at most width runes, filling greedily at
// word boundaries. Words longer than width are split across lines.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		lines   []string
		current []rune
	)
	for _, word := range words {
		runes := []rune(word)
		for len(runes) > 0 {
			switch {
			case len(current) == 0 && len(runes) <= width:
				current = append(current, runes...)
				runes = nil
			case len(current) > 0 && len(current)+1+len(runes) <= width:
				current = append(append(current, ' '), runes...)
				runes = nil
			case len(current) > 0:
				lines = append(lines, string(current))
				current = current[:0:0]
			default:
				lines = append(lines, string(runes[:width]))
				runes = runes[width:]
			}
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}
