package document

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

const pageSeparator = "\n-----\n\n"

type MarkdownOptions struct {
	// FrontMatter prepends the document metadata as a YAML block.
	FrontMatter bool

	// PageSeparators puts a horizontal rule between pages.
	PageSeparators bool
}

// Markdown renders the text of every page as markdown paragraphs.
func (d *Document) Markdown(opts MarkdownOptions) (string, error) {
	var b strings.Builder

	md := d.Metadata()

	if opts.FrontMatter {
		front, err := yaml.Marshal(md)
		if err != nil {
			return "", fmt.Errorf("failed to encode front matter: %w", err)
		}
		b.WriteString("---\n")
		b.Write(front)
		b.WriteString("---\n\n")
	}

	if title := strings.TrimSpace(md["title"]); title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}

	count := d.PageCount()
	for page := 1; page <= count; page++ {
		text, err := d.PageText(page)
		if err != nil {
			return "", err
		}

		if paragraphs := paragraphs(text); paragraphs != "" {
			b.WriteString(paragraphs)
			b.WriteString("\n")
		}
		if opts.PageSeparators && page < count {
			b.WriteString(pageSeparator)
		}
	}

	return b.String(), nil
}

// paragraphs normalizes extracted text: trailing spaces are dropped and
// runs of blank lines collapse into one paragraph break.
func paragraphs(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var b strings.Builder
	blank := true
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank {
				b.WriteString("\n")
			}
			blank = true
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
		blank = false
	}

	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
