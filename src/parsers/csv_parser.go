package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
)

type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(file io.Reader, encoding string) ([]models.TransactionRow, []models.RowFailure, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}

	text, err := decodeFile(raw, encoding)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[cleanField(name)] = i
	}
	for _, required := range []string{colSecurityCode, colOrderNumber} {
		if _, ok := colIndex[required]; !ok {
			return nil, nil, fmt.Errorf("CSV header is missing required column %q", required)
		}
	}

	var (
		rows     []models.TransactionRow
		failures []models.RowFailure
	)
	line := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			failures = append(failures, models.RowFailure{
				Line:   line,
				Reason: models.ReasonMalformedRow,
				Detail: err.Error(),
			})
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		get := func(col string) string {
			idx, ok := colIndex[col]
			if !ok || idx >= len(record) {
				return ""
			}
			return cleanField(record[idx])
		}

		row, fail := buildRow(line, get)
		if fail != nil {
			logger.L.Warn("Skipping malformed CSV row", "line", fail.Line, "detail", fail.Detail)
			failures = append(failures, *fail)
			continue
		}
		rows = append(rows, row)
	}

	return rows, failures, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
