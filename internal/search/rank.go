package search

import (
	"math"
	"sort"
)

// Result is a ranked document.
type Result struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// Filter decides whether a document may appear in ranked results.
type Filter func(id int, status Status, rating int) bool

// StatusIs accepts documents whose status equals want.
func StatusIs(want Status) Filter {
	return func(_ int, status Status, _ int) bool {
		return status == want
	}
}

// ActualOnly is the default filter: documents with StatusActual.
var ActualOnly Filter = StatusIs(StatusActual)

// FindTopDocuments ranks StatusActual documents against raw.
func (e *Engine) FindTopDocuments(raw string) ([]Result, error) {
	return e.FindTopDocumentsWith(raw, ActualOnly)
}

// FindTopDocumentsByStatus ranks documents with the given status against raw.
func (e *Engine) FindTopDocumentsByStatus(raw string, status Status) ([]Result, error) {
	return e.FindTopDocumentsWith(raw, StatusIs(status))
}

// FindTopDocumentsWith ranks documents accepted by filter against raw. A nil
// filter means ActualOnly.
//
// Results are ordered by descending relevance; relevances closer than 1e-6
// are ordered by descending rating. At most the engine's result cap is
// returned.
func (e *Engine) FindTopDocumentsWith(raw string, filter Filter) ([]Result, error) {
	if filter == nil {
		filter = ActualOnly
	}
	q, err := e.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	matched := e.findAllDocuments(q, filter)

	sort.SliceStable(matched, func(i, j int) bool {
		if math.Abs(matched[i].Relevance-matched[j].Relevance) < relevanceEpsilon {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].Relevance > matched[j].Relevance
	})
	if len(matched) > e.maxResults {
		matched = matched[:e.maxResults]
	}
	return matched, nil
}

// inverseDocumentFreq returns ln(N / df) for a word present in the index.
func (e *Engine) inverseDocumentFreq(word string) float64 {
	return math.Log(float64(e.DocumentCount()) / float64(len(e.wordToDocumentFreqs[word])))
}

// findAllDocuments accumulates relevance for every document matching a plus
// word and passing filter, then drops documents containing a minus word.
// The result is in ascending id order.
func (e *Engine) findAllDocuments(q Query, filter Filter) []Result {
	relevance := make(map[int]float64)
	for _, word := range q.SortedPlusWords() {
		docs, ok := e.wordToDocumentFreqs[word]
		if !ok {
			continue
		}
		idf := e.inverseDocumentFreq(word)
		for id, tf := range docs {
			d, ok := e.documents[id]
			if !ok || !filter(id, d.status, d.rating) {
				continue
			}
			relevance[id] += tf * idf
		}
	}

	for word := range q.MinusWords {
		for id := range e.wordToDocumentFreqs[word] {
			delete(relevance, id)
		}
	}

	ids := make([]int, 0, len(relevance))
	for id := range relevance {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, Result{
			ID:        id,
			Relevance: relevance[id],
			Rating:    e.documents[id].rating,
		})
	}
	return out
}
