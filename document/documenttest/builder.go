// Package documenttest builds small, valid PDF files for tests.
package documenttest

import (
	"bytes"
	"fmt"
	"strings"
)

type Info struct {
	Title  string
	Author string
}

// Build returns a PDF 1.4 document with one page per entry of pages. Each
// page shows its text in Helvetica, one line per newline-separated chunk.
func Build(info Info, pages ...string) []byte {
	objects := make([]string, 0)
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // patched once the page tree is known
	tree := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	kids := make([]string, 0, len(pages))
	for _, text := range pages {
		stream := contentStream(text)
		contents := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		page := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			tree, font, contents,
		))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree)
	objects[tree-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	infoFields := make([]string, 0)
	if info.Title != "" {
		infoFields = append(infoFields, fmt.Sprintf("/Title (%s)", escape(info.Title)))
	}
	if info.Author != "" {
		infoFields = append(infoFields, fmt.Sprintf("/Author (%s)", escape(info.Author)))
	}
	infoFields = append(infoFields, "/CreationDate (D:20240101000000Z)")
	infoObj := add(fmt.Sprintf("<< %s >>", strings.Join(infoFields, " ")))

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\n", len(objects)+1, catalog, infoObj)
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xref)

	return b.Bytes()
}

func contentStream(text string) string {
	var b strings.Builder
	b.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escape(line))
	}
	b.WriteString("ET")
	return b.String()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}
