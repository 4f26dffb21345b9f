package curatedfaq

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	commonhttp "telehealth-agent/internal/common/http"
)

// SheetStore reads the published CSV export of the curated sheet.
type SheetStore struct {
	http     *commonhttp.Client
	csvURL   string
	sheetURL string
}

func NewSheetStore(csvURL, sheetURL string, timeout time.Duration) *SheetStore {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SheetStore{
		http:     commonhttp.NewClient(timeout),
		csvURL:   csvURL,
		sheetURL: sheetURL,
	}
}

// Search returns every row of the sheet; the export has no server-side search.
func (s *SheetStore) Search(ctx context.Context, _ string, _ int) ([]Entry, error) {
	return s.Load(ctx)
}

// Load downloads and parses the export.
func (s *SheetStore) Load(ctx context.Context) ([]Entry, error) {
	body, err := s.http.Get(ctx, s.csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download curated sheet: %w", err)
	}
	return ParseCSV(body, s.sheetURL)
}

// ParseCSV extracts entries from the rows following the
// "Keywords | Questions" header row.
func ParseCSV(data []byte, sheetURL string) ([]Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse curated sheet: %w", err)
	}

	var entries []Entry
	inData := false
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if len(row) >= 2 && strings.Contains(row[0], "Keywords") && strings.Contains(row[1], "Questions") {
			inData = true
			continue
		}
		if !inData || len(row) < 4 {
			continue
		}

		e := Entry{
			Keywords:        strings.TrimSpace(row[0]),
			QuestionBengali: strings.TrimSpace(row[1]),
			QuestionEnglish: strings.TrimSpace(row[2]),
			AnswerBengali:   strings.TrimSpace(row[3]),
			SourceURL:       sheetURL,
		}
		if len(row) > 4 {
			e.AnswerEnglish = strings.TrimSpace(row[4])
		}
		if e.Keywords == "" || e.QuestionBengali == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
