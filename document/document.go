// Package document exposes the operations the gateway offers on a PDF:
// metadata, page count, per-page text and a markdown rendering.
package document

import (
	"bytes"
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var headerVersion = regexp.MustCompile(`%PDF-(\d+\.\d+)`)

type Document struct {
	reader  *pdf.Reader
	version string
}

// Open parses data as a PDF document.
func Open(data []byte) (doc *Document, err error) {
	defer func() {
		if msg := recover(); msg != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrInvalidDocument, msg)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	doc = &Document{reader: reader}
	if m := headerVersion.FindSubmatch(data[:min(len(data), 1024)]); m != nil {
		doc.version = string(m[1])
	}

	return doc, nil
}

func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// Metadata returns the document info dictionary with camelCase keys
// (title, author, creationDate, ...) and the PDF format version.
func (d *Document) Metadata() map[string]string {
	md := make(map[string]string)
	if d.version != "" {
		md["format"] = "PDF " + d.version
	}

	info := d.reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return md
	}

	for _, key := range info.Keys() {
		md[metadataKey(key)] = valueText(info.Key(key))
	}

	return md
}

// PageIndex validates a 1-based page number and returns its 0-based index.
func (d *Document) PageIndex(page int) (int, error) {
	if page < 1 || page > d.PageCount() {
		return 0, ErrInvalidPage
	}
	return page - 1, nil
}

// PageText extracts the plain text of a 1-based page.
func (d *Document) PageText(page int) (text string, err error) {
	if _, err := d.PageIndex(page); err != nil {
		return "", err
	}

	defer func() {
		if msg := recover(); msg != nil {
			text, err = "", fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, page, msg)
		}
	}()

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("%w: page %d is missing", ErrInvalidDocument, page)
	}

	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %w", ErrInvalidDocument, page, err)
	}
	return text, nil
}

func metadataKey(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToLower(r)) + key[size:]
}

func valueText(v pdf.Value) string {
	switch v.Kind() {
	case pdf.String:
		return v.Text()
	case pdf.Name:
		return v.Name()
	default:
		return v.String()
	}
}
