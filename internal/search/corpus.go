package search

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SeedDocument is one row of a corpus file.
type SeedDocument struct {
	ID      int
	Status  Status
	Ratings []int
	Content string
}

// ReadCorpusFile reads the Markdown corpus at path. See ReadCorpus.
func ReadCorpusFile(path string) ([]SeedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCorpus(f)
}

// ReadCorpus parses a Markdown table of documents:
//
//	| id | status | ratings | content           |
//	|----|--------|---------|-------------------|
//	| 0  | ACTUAL | 1 2 3   | cat in the city   |
//
// Notes:
//   - Only table rows are considered; prose, headings and blank lines are skipped.
//   - Separator rows and the header row (first cell "id") are skipped.
//   - The ratings cell is space separated and may be empty.
//   - Pipes inside content are kept: everything after the third cell is content.
func ReadCorpus(r io.Reader) ([]SeedDocument, error) {
	var out []SeedDocument
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())

		// table row: "| ... |"
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
		cols := strings.SplitN(raw, "|", 4)

		allSep := true
		for _, c := range cols {
			tmp := strings.ReplaceAll(strings.TrimSpace(c), ":", "")
			tmp = strings.ReplaceAll(tmp, "-", "")
			if strings.TrimSpace(tmp) != "" {
				allSep = false
			}
		}
		if allSep {
			continue
		}
		if len(cols) != 4 {
			return nil, fmt.Errorf("corpus line %d: want 4 columns, got %d", lineNo, len(cols))
		}
		if strings.EqualFold(strings.TrimSpace(cols[0]), "id") {
			continue
		}

		doc, err := parseCorpusRow(cols)
		if err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", lineNo, err)
		}
		out = append(out, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseCorpusRow(cols []string) (SeedDocument, error) {
	id, err := strconv.Atoi(strings.TrimSpace(cols[0]))
	if err != nil {
		return SeedDocument{}, fmt.Errorf("%w: %q", ErrInvalidDocumentID, strings.TrimSpace(cols[0]))
	}
	status, err := ParseStatus(cols[1])
	if err != nil {
		return SeedDocument{}, err
	}
	var ratings []int
	for _, f := range strings.Fields(cols[2]) {
		n, err := strconv.Atoi(f)
		if err != nil {
			return SeedDocument{}, fmt.Errorf("invalid rating %q", f)
		}
		ratings = append(ratings, n)
	}
	return SeedDocument{
		ID:      id,
		Status:  status,
		Ratings: ratings,
		Content: strings.TrimSpace(cols[3]),
	}, nil
}
