// Package search provides a deterministic in-memory TF-IDF document index.
//
// An Engine owns three pieces of state:
//
//   - a stop-word set applied to documents and queries alike
//   - an inverted index: word → (document id → term frequency)
//   - a document store: document id → {average rating, status}
//
// Queries are plain space-separated words; a word prefixed with '-' excludes
// every document containing it. Results are ranked by TF-IDF relevance, ties
// are broken by rating, and at most MaxResultDocumentCount results are
// returned.
//
// The Engine does not synchronize access and does not log. Callers that share
// one instance between goroutines must serialize writers themselves (see
// services.IndexService).
package search

import (
	"fmt"
	"sort"
)

// MaxResultDocumentCount is the default cap on ranked results.
const MaxResultDocumentCount = 5

// relevanceEpsilon is the tolerance under which two relevances are equal.
const relevanceEpsilon = 1e-6

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopWords  string
	maxResults int
}

func defaultConfig() config {
	return config{
		stopWords:  "",
		maxResults: MaxResultDocumentCount,
	}
}

// WithStopWords registers space-separated stop words at construction time.
func WithStopWords(text string) Option {
	return func(c *config) {
		c.stopWords = text
	}
}

// WithMaxResults overrides the result cap. Non-positive values are ignored.
func WithMaxResults(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// ----------------------------------------------------------------------------
// Engine

type documentData struct {
	rating int
	status Status
}

// DocumentInfo describes a stored document.
type DocumentInfo struct {
	ID     int
	Rating int
	Status Status
}

// Engine is an in-memory TF-IDF search index.
type Engine struct {
	maxResults int

	stopWords map[string]struct{}
	// word -> document id -> term frequency
	wordToDocumentFreqs map[string]map[int]float64
	// document id -> word -> term frequency; used to replace a re-added id
	documentToWordFreqs map[int]map[string]float64
	documents           map[int]documentData
}

// New returns an empty Engine.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	e := &Engine{
		maxResults:          cfg.maxResults,
		stopWords:           make(map[string]struct{}),
		wordToDocumentFreqs: make(map[string]map[int]float64),
		documentToWordFreqs: make(map[int]map[string]float64),
		documents:           make(map[int]documentData),
	}
	e.SetStopWords(cfg.stopWords)
	return e
}

// SetStopWords adds every space-separated word of text to the stop-word set.
// Already indexed documents are not affected.
func (e *Engine) SetStopWords(text string) {
	for _, w := range SplitIntoWords(text) {
		e.stopWords[w] = struct{}{}
	}
}

// ReplaceStopWords discards the current stop-word set and registers the words
// of text instead. Empty text clears the set.
func (e *Engine) ReplaceStopWords(text string) {
	clear(e.stopWords)
	e.SetStopWords(text)
}

// StopWords returns the registered stop words in lexicographic order.
func (e *Engine) StopWords() []string {
	out := make([]string, 0, len(e.stopWords))
	for w := range e.stopWords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// AddDocument indexes text under id. Re-adding an id replaces the previous
// document entirely (last write wins).
//
// It fails without mutating the engine when id is negative, status is not one
// of the four known statuses, or text has no words left after stop-word
// removal.
func (e *Engine) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDocumentID, id)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(status))
	}
	words := e.splitIntoWordsNoStop(text)
	if len(words) == 0 {
		return fmt.Errorf("%w: id %d", ErrEmptyDocument, id)
	}

	e.removePostings(id)

	invWordCount := 1.0 / float64(len(words))
	freqs := make(map[string]float64, len(words))
	for _, w := range words {
		freqs[w] += invWordCount
	}
	for w, tf := range freqs {
		docs, ok := e.wordToDocumentFreqs[w]
		if !ok {
			docs = make(map[int]float64)
			e.wordToDocumentFreqs[w] = docs
		}
		docs[id] = tf
	}
	e.documentToWordFreqs[id] = freqs
	e.documents[id] = documentData{
		rating: computeAverageRating(ratings),
		status: status,
	}
	return nil
}

// DocumentCount returns the number of stored documents.
func (e *Engine) DocumentCount() int {
	return len(e.documents)
}

// Document returns the stored rating and status of id.
func (e *Engine) Document(id int) (DocumentInfo, error) {
	d, ok := e.documents[id]
	if !ok {
		return DocumentInfo{}, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}
	return DocumentInfo{ID: id, Rating: d.rating, Status: d.status}, nil
}

// removePostings drops every index entry of id so a replacement starts clean.
func (e *Engine) removePostings(id int) {
	for w := range e.documentToWordFreqs[id] {
		docs := e.wordToDocumentFreqs[w]
		delete(docs, id)
		if len(docs) == 0 {
			delete(e.wordToDocumentFreqs, w)
		}
	}
	delete(e.documentToWordFreqs, id)
}

func (e *Engine) isStopWord(w string) bool {
	_, ok := e.stopWords[w]
	return ok
}

func (e *Engine) splitIntoWordsNoStop(text string) []string {
	return RemoveStopWords(SplitIntoWords(text), e.stopWords)
}

// computeAverageRating returns the integer mean of ratings truncated toward
// zero, or 0 when there are none.
func computeAverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
