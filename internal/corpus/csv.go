package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ragqa/internal/domain"
)

// CSVOptions selects the question and answer columns by header name.
type CSVOptions struct {
	QuestionColumn string
	AnswerColumn   string
	// Limit stops reading after this many rows; <= 0 reads everything.
	Limit int
}

// LoadCSVFile reads corpus rows from a CSV file with a header line.
func LoadCSVFile(path string, opts CSVOptions) ([]domain.CorpusEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}

// LoadCSV reads corpus rows in source order.
func LoadCSV(r io.Reader, opts CSVOptions) ([]domain.CorpusEntry, error) {
	qCol := opts.QuestionColumn
	if qCol == "" {
		qCol = "question"
	}
	aCol := opts.AnswerColumn
	if aCol == "" {
		aCol = "answer"
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus header: %w", err)
	}
	qi, ai := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case strings.EqualFold(name, qCol):
			qi = i
		case strings.EqualFold(name, aCol):
			ai = i
		}
	}
	if qi < 0 || ai < 0 {
		return nil, fmt.Errorf("corpus header must contain %q and %q columns, got %v", qCol, aCol, header)
	}

	var rows []domain.CorpusEntry
	for opts.Limit <= 0 || len(rows) < opts.Limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus row %d: %w", len(rows)+1, err)
		}
		if len(rec) <= max(qi, ai) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("corpus line %d: expected at least %d fields, got %d", line, max(qi, ai)+1, len(rec))
		}
		rows = append(rows, domain.CorpusEntry{
			Question: strings.TrimSpace(rec[qi]),
			Answer:   strings.TrimSpace(rec[ai]),
		})
	}
	return rows, nil
}
