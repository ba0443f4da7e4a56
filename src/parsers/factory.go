package parsers

import "fmt"

func GetParser(format string) (Parser, error) {
	switch format {
	case "csv":
		return NewCSVParser(), nil
	case "txt":
		return NewTXTParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
