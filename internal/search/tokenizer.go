package search

// SplitIntoWords splits text on runs of ASCII spaces. Every other byte,
// including tabs, newlines and punctuation, belongs to a word. Empty words are
// never produced.
func SplitIntoWords(text string) []string {
	var words []string
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

// RemoveStopWords returns words without the members of stop, keeping order.
func RemoveStopWords(words []string, stop map[string]struct{}) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out = append(out, w)
	}
	return out
}
