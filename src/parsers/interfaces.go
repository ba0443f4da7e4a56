package parsers

import (
	"io"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

// Parser turns a raw brokerage export into normalized transaction rows.
// Rows are returned in file order. Malformed rows are reported in the failure
// slice, never silently dropped; the error return is reserved for file-level
// problems (undecodable content, missing required columns).
type Parser interface {
	Parse(file io.Reader, encoding string) ([]models.TransactionRow, []models.RowFailure, error)
}
