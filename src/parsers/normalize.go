package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var quotedFormulaRe = regexp.MustCompile(`"([^"]*)"`)

// cleanField strips spreadsheet-formula wrapping and surrounding whitespace.
// Broker exports store text columns as `="600000  "` to stop Excel from
// eating leading zeros.
func cleanField(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "=") {
		if m := quotedFormulaRe.FindStringSubmatch(value); m != nil {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(strings.TrimPrefix(value, "="))
	}
	return value
}

// foldWidth maps full-width digits and punctuation to their ASCII forms so
// numeric columns typed on a CJK locale still parse.
func foldWidth(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '０' && r <= '９':
			return r - '０' + '0'
		case r == '．':
			return '.'
		case r == '，':
			return ','
		case r == '－':
			return '-'
		case r == '　': // ideographic space
			return ' '
		}
		return r
	}, value)
}

// formatSecurityCode zero-pads numeric security codes to six digits and
// truncates anything longer, mirroring the broker's canonical code format.
func formatSecurityCode(code string) string {
	code = strings.TrimSpace(code)
	if isDigits(code) {
		if len(code) < 6 {
			return strings.Repeat("0", 6-len(code)) + code
		}
		if len(code) > 6 {
			return code[:6]
		}
	}
	return code
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseNumeric coerces a cleaned cell to a float64. Empty cells are zero;
// anything else must parse after width folding and thousands-separator
// removal.
func parseNumeric(value string) (float64, error) {
	value = strings.TrimSpace(foldWidth(value))
	if value == "" {
		return 0, nil
	}
	value = strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", value)
	}
	return f, nil
}

var tradeDateFormats = []string{"2006-01-02", "2006/01/02", "20060102", "2006-1-2"}

func parseTradeDate(value string) (time.Time, error) {
	value = strings.TrimSpace(foldWidth(value))
	for _, layout := range tradeDateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid trade date %q", value)
}
