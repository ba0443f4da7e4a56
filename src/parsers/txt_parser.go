package parsers

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
)

var fieldSplitRe = regexp.MustCompile(`\s+`)

// TXTParser handles the headerless fixed-column text export some brokerage
// terminals produce instead of CSV. Columns follow exportColumns order and
// are separated by runs of whitespace.
type TXTParser struct{}

func NewTXTParser() *TXTParser {
	return &TXTParser{}
}

func (p *TXTParser) Parse(file io.Reader, encoding string) ([]models.TransactionRow, []models.RowFailure, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}

	text, err := decodeFile(raw, encoding)
	if err != nil {
		return nil, nil, err
	}

	var (
		rows     []models.TransactionRow
		failures []models.RowFailure
	)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		lineText := strings.TrimSpace(foldWidth(scanner.Text()))
		if lineText == "" {
			continue
		}
		fields := fieldSplitRe.Split(lineText, -1)
		if len(fields) < len(exportColumns) {
			failures = append(failures, models.RowFailure{
				Line:   line,
				Reason: models.ReasonMalformedRow,
				Detail: fmt.Sprintf("expected %d columns, got %d", len(exportColumns), len(fields)),
			})
			continue
		}

		get := func(col string) string {
			for i, name := range exportColumns {
				if name == col {
					return cleanField(fields[i])
				}
			}
			return ""
		}

		row, fail := buildRow(line, get)
		if fail != nil {
			logger.L.Warn("Skipping malformed TXT row", "line", fail.Line, "detail", fail.Detail)
			failures = append(failures, *fail)
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan TXT export: %w", err)
	}

	return rows, failures, nil
}
