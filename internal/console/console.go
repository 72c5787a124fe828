// Package console implements the line-oriented search front end used by
// cmd/searchcli.
//
// Input layout:
//
//	stop words line
//	N
//	N pairs of lines: document text, then "k r1 ... rk"
//	one query per remaining line
//
// Documents get ids 0..N-1 and status ACTUAL. Every query prints its top
// documents, one per line.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-search-server/internal/search"
)

// ErrInvalidInput reports a header or ratings line that cannot be parsed.
var ErrInvalidInput = errors.New("invalid console input")

// Options tunes a console run.
type Options struct {
	MaxResults int            // ranked result cap, 0 keeps the engine default
	Logger     zerolog.Logger // receives skipped documents and rejected queries
}

// Run reads documents and queries from r and writes results to w.
// Unindexable documents and malformed queries are logged and skipped; a
// broken header or ratings line stops the run.
func Run(r io.Reader, w io.Writer, opts Options) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	out := bufio.NewWriter(w)
	defer out.Flush()

	stop, _ := readLine(sc)
	engine := search.New(search.WithStopWords(stop), search.WithMaxResults(opts.MaxResults))

	header, ok := readLine(sc)
	if !ok {
		return sc.Err()
	}
	n, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || n < 0 {
		return fmt.Errorf("%w: document count %q", ErrInvalidInput, header)
	}

	for id := 0; id < n; id++ {
		text, _ := readLine(sc)
		line, _ := readLine(sc)
		ratings, err := parseRatings(line)
		if err != nil {
			return fmt.Errorf("document %d: %w", id, err)
		}
		if err := engine.AddDocument(id, text, search.StatusActual, ratings); err != nil {
			opts.Logger.Warn().Err(err).Int("document_id", id).Msg("document skipped")
		}
	}
	opts.Logger.Debug().Int("documents", engine.DocumentCount()).Msg("index built")

	for {
		q, ok := readLine(sc)
		if !ok {
			break
		}
		if strings.TrimSpace(q) == "" {
			continue
		}
		results, err := engine.FindTopDocuments(q)
		if err != nil {
			opts.Logger.Warn().Err(err).Str("query", q).Msg("query rejected")
			continue
		}
		for _, res := range results {
			fmt.Fprintln(out, FormatResult(res))
		}
	}
	return sc.Err()
}

// FormatResult renders a ranked document the way the console prints it.
func FormatResult(r search.Result) string {
	return fmt.Sprintf("{ document_id = %d, relevance = %s, rating = %d }",
		r.ID, strconv.FormatFloat(r.Relevance, 'g', 6, 64), r.Rating)
}

// parseRatings reads "k r1 ... rk". An empty line means no ratings.
func parseRatings(line string) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	k, err := strconv.Atoi(fields[0])
	if err != nil || k < 0 || k > len(fields)-1 {
		return nil, fmt.Errorf("%w: ratings %q", ErrInvalidInput, line)
	}
	ratings := make([]int, k)
	for i := range ratings {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: rating %q", ErrInvalidInput, fields[i+1])
		}
		ratings[i] = v
	}
	return ratings, nil
}

func readLine(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimRight(sc.Text(), "\r"), true
}
