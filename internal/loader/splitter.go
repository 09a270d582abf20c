package loader

import (
	"strings"
	"unicode"
)

// splitText cuts text into chunks of at most maxRunes, overlapping adjacent
// chunks by up to overlap runes. Cuts prefer a whitespace boundary in the
// second half of the window so words stay intact. Deterministic.
func splitText(text string, maxRunes, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + maxRunes
		if end >= len(runes) {
			if t := strings.TrimSpace(string(runes[start:])); t != "" {
				out = append(out, t)
			}
			break
		}

		cut := end
		for i := end; i > start+maxRunes/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}

		if t := strings.TrimSpace(string(runes[start:cut])); t != "" {
			out = append(out, t)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}
