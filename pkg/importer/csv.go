package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// parseCSV reads a headered CSV into one map per data row, keyed by the
// lowercased header. Real exports are messy: rows with too few columns are
// padded, rows with too many are truncated, and blank lines are skipped.
func parseCSV(r io.Reader, maxRows int) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	headerCount := len(headers)

	var records []map[string]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row %d: %w", len(records)+2, err)
		}

		if len(row) < headerCount {
			padded := make([]string, headerCount)
			copy(padded, row)
			row = padded
		} else if len(row) > headerCount {
			row = row[:headerCount]
		}

		empty := true
		record := make(map[string]string, headerCount)
		for i, h := range headers {
			value := strings.TrimSpace(row[i])
			if value != "" {
				empty = false
			}
			record[h] = value
		}
		if empty {
			continue
		}

		records = append(records, record)
		if maxRows > 0 && len(records) > maxRows {
			return nil, fmt.Errorf("file exceeds the maximum of %d rows", maxRows)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("file contains no data rows")
	}

	return records, nil
}
