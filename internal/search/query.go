package search

import (
	"fmt"
	"sort"
)

// Query is a parsed search request. Both sets are already free of stop words.
type Query struct {
	PlusWords  map[string]struct{}
	MinusWords map[string]struct{}
}

// SortedPlusWords returns the plus words in lexicographic order.
func (q Query) SortedPlusWords() []string { return sortedKeys(q.PlusWords) }

// SortedMinusWords returns the minus words in lexicographic order.
func (q Query) SortedMinusWords() []string { return sortedKeys(q.MinusWords) }

type queryWord struct {
	data    string
	isMinus bool
	isStop  bool
}

func (e *Engine) parseQueryWord(text string) (queryWord, error) {
	isMinus := false
	if text[0] == '-' {
		isMinus = true
		text = text[1:]
	}
	if text == "" {
		return queryWord{}, fmt.Errorf("%w: lone '-' without a word", ErrMalformedQuery)
	}
	return queryWord{data: text, isMinus: isMinus, isStop: e.isStopWord(text)}, nil
}

// ParseQuery splits raw into plus and minus words using the engine's stop
// words. A word consisting only of '-' makes the whole query invalid.
func (e *Engine) ParseQuery(raw string) (Query, error) {
	q := Query{
		PlusWords:  make(map[string]struct{}),
		MinusWords: make(map[string]struct{}),
	}
	for _, w := range SplitIntoWords(raw) {
		qw, err := e.parseQueryWord(w)
		if err != nil {
			return Query{}, err
		}
		if qw.isStop {
			continue
		}
		if qw.isMinus {
			q.MinusWords[qw.data] = struct{}{}
		} else {
			q.PlusWords[qw.data] = struct{}{}
		}
	}
	return q, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
