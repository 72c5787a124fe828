package search

import "fmt"

// MatchDocument reports which plus words of raw occur in document id, in
// lexicographic order, together with the document's status. If any minus word
// occurs in the document the word list is empty.
func (e *Engine) MatchDocument(raw string, id int) ([]string, Status, error) {
	d, ok := e.documents[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}
	q, err := e.ParseQuery(raw)
	if err != nil {
		return nil, 0, err
	}

	for word := range q.MinusWords {
		if e.containsWord(word, id) {
			return []string{}, d.status, nil
		}
	}

	matched := make([]string, 0, len(q.PlusWords))
	for _, word := range q.SortedPlusWords() {
		if e.containsWord(word, id) {
			matched = append(matched, word)
		}
	}
	return matched, d.status, nil
}

func (e *Engine) containsWord(word string, id int) bool {
	_, ok := e.wordToDocumentFreqs[word][id]
	return ok
}
