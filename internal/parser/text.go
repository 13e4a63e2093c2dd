package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docnav/internal/doctree"
)

// TextParser handles plain text. Blank lines separate paragraphs; line
// breaks inside a paragraph are kept as Markdown hard breaks.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewBuilder(baseTitle(filename))
	var para []string
	flush := func() {
		if len(para) > 0 {
			b.Text(strings.Join(para, "  \n"))
			para = para[:0]
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return b.Document(), nil
}
