package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"dailyquote/pkg/db"
	"dailyquote/pkg/queue"
)

type QuoteInput struct {
	Text   string
	Author string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseQuotesCSV reads `"text","author"` records, the author being optional.
// Malformed rows (empty text, over-length text) are skipped and counted, not
// fatal to the batch.
func ParseQuotesCSV(data []byte) ([]QuoteInput, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var quotes []QuoteInput
	skipped := 0
	checkedHeader := false

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A single unreadable line should not sink the whole upload.
			skipped++
			continue
		}
		if isEmptyCSVRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(record) {
				continue
			}
		}

		text := strings.TrimSpace(record[0])
		author := ""
		if len(record) > 1 {
			author = strings.TrimSpace(record[1])
		}
		if text == "" || utf8.RuneCountInString(text) > db.MaxQuoteLength {
			skipped++
			continue
		}
		quotes = append(quotes, QuoteInput{Text: text, Author: author})
	}

	return quotes, skipped, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isHeaderRecord(record []string) bool {
	left := strings.ToLower(strings.TrimSpace(record[0]))
	if left != "text" && left != "quote" {
		return false
	}
	if len(record) < 2 {
		return true
	}
	right := strings.ToLower(strings.TrimSpace(record[1]))
	return right == "author" || right == ""
}

// ImportQuotes inserts the parsed quotes and appends each to the current
// rotation at the next free position, in one batch under the rotation lock.
func ImportQuotes(q *queue.Service, inputs []QuoteInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	quotes := make([]db.Quote, 0, len(inputs))
	for _, input := range inputs {
		quotes = append(quotes, db.Quote{Text: input.Text, Author: input.Author})
	}
	return q.CreateQuotes(quotes)
}
