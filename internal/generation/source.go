package generation

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxSourceBytes caps an uploaded source document.
const MaxSourceBytes = 10 << 20

var (
	ErrUnsupportedSource = errors.New("unsupported source document type")
	ErrUnreadableSource  = errors.New("source document could not be read")
)

// ExtractSourceText returns the plain text of an uploaded document. PDFs are
// parsed page by page; text and markdown files must be valid UTF-8.
func ExtractSourceText(filename string, data []byte) (string, error) {
	if len(data) > MaxSourceBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrUnreadableSource, MaxSourceBytes)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ExtractPDFText(data)
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: not valid UTF-8", ErrUnreadableSource)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, filename)
	}
}

// ExtractPDFText concatenates the plain text of every readable page.
// Pages that fail to decode are skipped.
func ExtractPDFText(data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadableSource, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		out.WriteString(content)
		out.WriteString("\n")
	}

	text = strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: no extractable text", ErrUnreadableSource)
	}
	return text, nil
}
