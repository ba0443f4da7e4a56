package parsers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ErrFileDecode marks file content that could not be decoded with the
// declared encoding or the UTF-8 fallback. It is run-fatal: no row in an
// undecodable file can be trusted.
var ErrFileDecode = errors.New("file decoding failed")

// decodeFile converts raw file bytes to UTF-8 text. Brokerage exports default
// to GBK; content that is already valid UTF-8 is accepted as-is so a
// re-encoded file does not get mangled.
func decodeFile(raw []byte, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "utf-8", "utf8":
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: content is not valid UTF-8", ErrFileDecode)
		}
		return string(raw), nil
	case "", "gbk", "gb2312", "gb18030":
		// A GBK export containing Chinese text is essentially never valid
		// UTF-8, while UTF-8 misread as GBK can yield plausible-looking
		// mojibake. Checking UTF-8 validity first keeps the fallback exact.
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		decoded, err := decodeGBK(raw)
		if err == nil && !strings.ContainsRune(decoded, utf8.RuneError) {
			return decoded, nil
		}
		return "", fmt.Errorf("%w: tried %q and utf-8", ErrFileDecode, encoding)
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrFileDecode, encoding)
	}
}

func decodeGBK(raw []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(raw), simplifiedchinese.GBK.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("gbk decode: %w", err)
	}
	return string(decoded), nil
}
